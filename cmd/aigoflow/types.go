package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the registered node types",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, nodeType := range newFactory(nil).Types() {
			fmt.Fprintln(cmd.OutOrStdout(), nodeType)
		}
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
