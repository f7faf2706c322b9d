package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leofalp/aigoflow/providers/observability"
)

// Process runs nodeID with input and then, if it produced a non-nil result,
// each of its children in the same group scope, depth-first and in edge
// order. A node that already executed in this run is skipped, which is what
// makes cycles terminate; reentrant nodes are executed again but do not
// propagate a second time.
//
// The returned error is the node's own *ExecutionError or
// *ConfigurationError, or a descendant's error that aborted the branch.
func (run *Run) Process(ctx context.Context, nodeID string, input any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("node %q not started: %w", nodeID, err)
	}

	execCtx := run.execCtx

	if execCtx.HasExecuted(nodeID) {
		return run.revisit(ctx, nodeID, input)
	}
	// A group nested in itself, directly or through another group, reaches
	// its own id while its Execute is still on the stack.
	if execCtx.Status(nodeID) == StatusRunning {
		execCtx.Log(nodeID, "node is already running, skipping re-entry")
		return nil
	}

	result, err := run.ExecuteNode(ctx, nodeID, input)
	if err != nil {
		return err
	}
	if result == nil {
		execCtx.Log(nodeID, "node returned no result, propagation stopped")
		return nil
	}
	return run.propagate(ctx, nodeID, result)
}

// ExecuteNode runs a single node without propagating to its children and
// records its state and output. Groups use it to resolve iteration sources.
func (run *Run) ExecuteNode(ctx context.Context, nodeID string, input any) (any, error) {
	execCtx := run.execCtx

	node, err := run.Instance(nodeID)
	if err != nil {
		execCtx.MarkExecuted(nodeID)
		_ = execCtx.MarkError(nodeID, err)
		execCtx.Log(nodeID, "node could not be instantiated", observability.Error(err))
		return nil, err
	}

	_ = execCtx.MarkRunning(nodeID)
	result, err := run.execute(ctx, nodeID, node, input)
	execCtx.MarkExecuted(nodeID)

	if err != nil {
		_ = execCtx.MarkError(nodeID, err)
		return nil, err
	}

	_ = execCtx.MarkSuccess(nodeID, result)
	if result != nil {
		execCtx.StoreOutput(nodeID, result)
	}
	return result, nil
}

func (run *Run) revisit(ctx context.Context, nodeID string, input any) error {
	execCtx := run.execCtx

	run.mu.Lock()
	node := run.instances[nodeID]
	run.mu.Unlock()

	reentrant, ok := node.(Reentrant)
	if !ok || !reentrant.AcceptsRevisits() || execCtx.Status(nodeID) != StatusSuccess {
		execCtx.Log(nodeID, "node already executed, skipping")
		return nil
	}

	result, err := run.execute(ctx, nodeID, node, input)
	if err != nil {
		_ = execCtx.MarkError(nodeID, err)
		return err
	}
	_ = execCtx.MarkSuccess(nodeID, result)
	if result != nil {
		execCtx.StoreOutput(nodeID, result)
	}
	execCtx.Log(nodeID, "reentrant node refreshed its result")
	return nil
}

// execute calls node.Execute inside a span and wraps failures.
func (run *Run) execute(ctx context.Context, nodeID string, node Node, input any) (any, error) {
	nodeType := run.nodeType(nodeID)
	start := time.Now()
	ctx = run.observeNodeStart(ctx, nodeID, nodeType)

	result, err := node.Execute(ctx, input)
	duration := time.Since(start)

	if err != nil {
		var execErr *ExecutionError
		if !errors.As(err, &execErr) || execErr.NodeID != nodeID {
			err = &ExecutionError{NodeID: nodeID, NodeType: nodeType, Err: err}
		}
		run.observeNodeFailed(ctx, nodeID, nodeType, err, duration)
		return nil, err
	}

	run.observeNodeCompleted(ctx, nodeID, nodeType, result, duration)
	return result, nil
}

// propagate processes the same-scope children of nodeID with result.
func (run *Run) propagate(ctx context.Context, nodeID string, result any) error {
	parent := run.graph.Node(nodeID)
	if parent == nil {
		return nil
	}

	var errs []error
	for _, childID := range parent.ChildIDs {
		child := run.graph.Node(childID)
		if child.ParentGroupID != parent.ParentGroupID {
			// Edges crossing a group boundary belong to the group controller.
			continue
		}
		if err := run.Process(ctx, childID, result); err != nil {
			if run.strategy != ErrorStrategyContinueOnError || ctx.Err() != nil {
				return err
			}
			run.execCtx.Log(childID, "sibling failed, continuing", observability.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
