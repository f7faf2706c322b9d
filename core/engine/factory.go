package engine

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// GroupNodeType is the type name of the built-in group node.
const GroupNodeType = "group"

// Factory maps node type names to constructors. It is safe for concurrent use,
// so one factory can serve many runs.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory returns a factory with the built-in group type registered.
func NewFactory() *Factory {
	factory := &Factory{constructors: make(map[string]Constructor)}
	factory.Register(GroupNodeType, newGroupNode)
	return factory
}

// Register binds nodeType to constructor, replacing any previous binding.
func (factory *Factory) Register(nodeType string, constructor Constructor) {
	factory.mu.Lock()
	defer factory.mu.Unlock()
	factory.constructors[nodeType] = constructor
}

// Has reports whether nodeType is registered.
func (factory *Factory) Has(nodeType string) bool {
	factory.mu.RLock()
	defer factory.mu.RUnlock()
	_, ok := factory.constructors[nodeType]
	return ok
}

// Types returns the registered type names, sorted.
func (factory *Factory) Types() []string {
	factory.mu.RLock()
	defer factory.mu.RUnlock()
	return slices.Sorted(maps.Keys(factory.constructors))
}

// New instantiates the node described by scope.Node.
func (factory *Factory) New(scope Scope) (Node, error) {
	factory.mu.RLock()
	constructor, ok := factory.constructors[scope.Node.Type]
	factory.mu.RUnlock()

	if !ok {
		return nil, &ConfigurationError{
			NodeID: scope.Node.ID,
			Reason: fmt.Sprintf("type %q", scope.Node.Type),
			Err:    ErrUnknownNodeType,
		}
	}

	node, err := constructor(scope)
	if err != nil {
		return nil, &ConfigurationError{NodeID: scope.Node.ID, Reason: "invalid configuration", Err: err}
	}
	return node, nil
}
