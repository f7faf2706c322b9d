package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/flow"
)

var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Run a flow definition",
	Long:  `Runs every root of the flow (or only --start) and prints the results of the successful leaf nodes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("start")
		rawInputs, _ := cmd.Flags().GetStringArray("input")
		output, _ := cmd.Flags().GetString("output")
		continueOnError, _ := cmd.Flags().GetBool("continue-on-error")

		definition, err := flow.LoadFile(args[0])
		if err != nil {
			return err
		}
		inputs, err := parseInputs(rawInputs)
		if err != nil {
			return err
		}

		observer := newObserver(cmd)
		runnerOpts := []engine.Option{engine.WithObserver(observer)}
		if continueOnError {
			runnerOpts = append(runnerOpts, engine.WithErrorStrategy(engine.ErrorStrategyContinueOnError))
		}
		runner := engine.NewRunner(newFactory(observer.Logger()), runnerOpts...)

		runOpts := []engine.RunOption{engine.WithInputs(inputs)}
		if start != "" {
			runOpts = append(runOpts, engine.WithStartNode(start))
		}
		result, err := runner.Run(cmd.Context(), definition, runOpts...)
		if err != nil {
			return err
		}

		if err := printOutputs(cmd.OutOrStdout(), output, result.Outputs); err != nil {
			return err
		}
		if result.Err != nil {
			return fmt.Errorf("flow finished with errors: %w", result.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("start", "", "run only from this node id")
	runCmd.Flags().StringArrayP("input", "i", nil, "start node input as id=value; JSON values are decoded (repeatable)")
	runCmd.Flags().StringP("output", "o", outputAuto, "output format: auto, json or pretty")
	runCmd.Flags().Bool("continue-on-error", false, "keep running sibling branches after a node fails")
}

// parseInputs turns id=value pairs into run inputs. Values that parse as JSON
// are decoded; anything else is kept as a string.
func parseInputs(pairs []string) (map[string]any, error) {
	inputs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid input %q, expected id=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			inputs[id] = decoded
		} else {
			inputs[id] = value
		}
	}
	return inputs, nil
}
