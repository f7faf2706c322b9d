package engine

import (
	"context"

	"github.com/leofalp/aigoflow/core/flow"
)

// Node is one unit of work. Execute receives the output of the parent that
// triggered it (an empty map for start nodes without explicit input) and
// returns the value passed to its children. A nil result with a nil error
// stops propagation: no children run.
type Node interface {
	Execute(ctx context.Context, input any) (any, error)
}

// NodeFunc adapts an ordinary function to the Node interface.
type NodeFunc func(ctx context.Context, input any) (any, error)

// Execute calls the underlying function.
func (fn NodeFunc) Execute(ctx context.Context, input any) (any, error) {
	return fn(ctx, input)
}

// Reentrant nodes are executed again each time they are reached after their
// first execution in a run. The refreshed result replaces the stored output
// but is not propagated a second time, so cycles still terminate.
type Reentrant interface {
	Node
	AcceptsRevisits() bool
}

// ItemSource is implemented by nodes that expose a list of items to an
// iterating group even when their own Execute result is nil.
type ItemSource interface {
	Node
	Items() []any
}

// Scope is what a Constructor receives: the node's own definition and the run
// it belongs to, which gives access to the execution context, the whole flow
// definition, the built graph and the factory.
type Scope struct {
	Node flow.NodeDefinition
	Run  *Run
}

// ID returns the node id.
func (scope Scope) ID() string {
	return scope.Node.ID
}

// Data returns the node configuration.
func (scope Scope) Data() map[string]any {
	return scope.Node.Data
}

// Context returns the run's execution context.
func (scope Scope) Context() *ExecutionContext {
	if scope.Run == nil {
		return nil
	}
	return scope.Run.Context()
}

// Constructor builds a node bound to one run.
type Constructor func(scope Scope) (Node, error)

// IsEmptyInput reports whether input carries nothing: nil, an empty string,
// an empty map (what start nodes receive) or an empty list.
func IsEmptyInput(input any) bool {
	switch typed := input.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case map[string]any:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	}
	return false
}
