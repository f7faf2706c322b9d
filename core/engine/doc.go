// Package engine executes flow definitions.
//
// A [Runner] builds the adjacency graph of a [flow.Definition], picks the start
// nodes (an explicit start node, or every top-level root) and drives a
// depth-first traversal: a node's children run only after the node itself
// finished, one after another in edge order. Each run owns a fresh
// [ExecutionContext] holding node states, outputs and the executed set that
// makes cycles safe: a node executes at most once per run unless a group
// iteration resets it, or it implements [Reentrant].
//
// Node types are registered on a [Factory] by name. The built-in "group" type
// runs a nested sub-graph once, or once per item of a source node's output
// when data.iterationConfig.sourceNodeId is set.
//
// Failures are recorded on the failing node and returned to its caller:
// top-level roots are independent, and within a branch the [ErrorStrategy]
// decides whether siblings still run. Configuration problems surface as
// [*ConfigurationError], node failures as [*ExecutionError].
//
// Basic usage:
//
//	factory := engine.NewFactory()
//	node.RegisterDefaults(factory, node.Dependencies{})
//	runner := engine.NewRunner(factory, engine.WithObserver(slogobs.New()))
//	result, err := runner.Run(ctx, definition)
//	if err != nil {
//	    return err // configuration error, nothing ran
//	}
//	for _, output := range result.Outputs {
//	    fmt.Println(output.NodeName, output.Result)
//	}
package engine
