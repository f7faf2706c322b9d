package chain

import (
	"context"
	"errors"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/flow"
)

var errBoom = errors.New("boom")

// newTestRunner registers a "pass" type that returns data.output when set,
// fails when data.fail is true and otherwise returns its input.
func newTestRunner(inputs map[string]any) *engine.Runner {
	factory := engine.NewFactory()
	factory.Register("pass", func(scope engine.Scope) (engine.Node, error) {
		id := scope.ID()
		data := scope.Data()
		return engine.NodeFunc(func(ctx context.Context, input any) (any, error) {
			if inputs != nil {
				inputs[id] = input
			}
			if data["fail"] == true {
				return nil, errBoom
			}
			if output, ok := data["output"]; ok {
				return output, nil
			}
			return input, nil
		}), nil
	})
	return engine.NewRunner(factory)
}

func singleNode(id string, data map[string]any) *flow.Definition {
	return &flow.Definition{Nodes: []flow.NodeDefinition{{ID: id, Type: "pass", Data: data}}}
}
