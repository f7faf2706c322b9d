package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigoflow/core/chain"
	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/providers/store/redisstore"
)

var chainCmd = &cobra.Command{
	Use:   "chain <chain-file>",
	Short: "Run a chain of flows",
	Long:  `Runs the flows of a chain file in order. Inputs may reference earlier results with ${result-flow-<id>}; the chain stops at the first failing flow.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		chainID, _ := cmd.Flags().GetString("chain-id")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")

		items, err := chain.LoadFile(args[0])
		if err != nil {
			return err
		}

		observer := newObserver(cmd)
		runner := engine.NewRunner(newFactory(observer.Logger()), engine.WithObserver(observer))

		executorOpts := []chain.Option{
			chain.WithObserver(observer),
			chain.WithCallbacks(chain.Callbacks{
				OnFlowStart: func(flowID string) {
					fmt.Fprintf(cmd.ErrOrStderr(), "▶ %s\n", flowID)
				},
				OnError: func(flowID, message string) {
					fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %s\n", flowID, message)
				},
			}),
		}
		if redisAddr != "" {
			executorOpts = append(executorOpts, chain.WithResultStore(redisstore.New(redisAddr, "", 0)))
		}

		var runOpts []chain.RunOption
		if chainID != "" {
			runOpts = append(runOpts, chain.WithChainID(chainID))
		}
		report, runErr := chain.NewExecutor(runner, executorOpts...).Run(cmd.Context(), items, runOpts...)

		for _, run := range report.Flows {
			if run.Result == nil {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "== %s (%s)\n", run.ID, run.Status)
			if err := printOutputs(cmd.OutOrStdout(), output, run.Result.Outputs); err != nil {
				return err
			}
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().StringP("output", "o", outputAuto, "output format: auto, json or pretty")
	chainCmd.Flags().String("chain-id", "", "reuse a chain id so results from earlier runs can be referenced")
	chainCmd.Flags().String("redis-addr", envOr(envRedisAddr, ""), "store results in Redis at this address")
}
