package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigoflow/core/flow"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow definition",
	Long:  `Reports roots, depth levels, unreachable nodes and dangling edges, and fails on duplicate ids, unknown node types or missing groups.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		definition, err := flow.LoadFile(args[0])
		if err != nil {
			return err
		}
		factory := newFactory(nil)
		report := flow.Validate(definition, factory.Has)
		printReport(cmd.OutOrStdout(), report)
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Flow is valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func printReport(w io.Writer, report *flow.Report) {
	fmt.Fprintf(w, "Roots: %s\n", strings.Join(report.Roots, ", "))
	for depth, level := range report.Levels {
		fmt.Fprintf(w, "  depth %d: %s\n", depth, strings.Join(level, ", "))
	}
	if len(report.Unreachable) > 0 {
		fmt.Fprintf(w, "Unreachable (cycle or disconnected): %s\n", strings.Join(report.Unreachable, ", "))
	}
	for _, edge := range report.DanglingEdges {
		fmt.Fprintf(w, "Ignored edge %s -> %s (unknown endpoint)\n", edge.Source, edge.Target)
	}
}
