package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leofalp/aigoflow/core/flow"
)

// recorder captures node invocations in call order.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

type call struct {
	nodeID string
	input  any
}

func (r *recorder) record(nodeID string, input any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{nodeID: nodeID, input: input})
}

func (r *recorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		ids = append(ids, c.nodeID)
	}
	return ids
}

func (r *recorder) count(nodeID string) int {
	n := 0
	for _, id := range r.order() {
		if id == nodeID {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")

// newTestFactory registers an "echo" type. An echo node appends ">id" to a
// string input (or starts a path with its id), and honours data keys:
// "fail" (return errBoom), "stop" (return nil), "output" (fixed result).
func newTestFactory(rec *recorder) *Factory {
	factory := NewFactory()
	factory.Register("echo", func(scope Scope) (Node, error) {
		id := scope.ID()
		data := scope.Data()
		return NodeFunc(func(ctx context.Context, input any) (any, error) {
			rec.record(id, input)
			if data["fail"] == true {
				return nil, errBoom
			}
			if data["stop"] == true {
				return nil, nil
			}
			if output, ok := data["output"]; ok {
				return output, nil
			}
			if path, ok := input.(string); ok {
				return path + ">" + id, nil
			}
			return id, nil
		}), nil
	})
	return factory
}

func echo(id string, data ...map[string]any) flow.NodeDefinition {
	node := flow.NodeDefinition{ID: id, Type: "echo"}
	if len(data) > 0 {
		node.Data = data[0]
	}
	return node
}

func link(source, target string) flow.EdgeDefinition {
	return flow.EdgeDefinition{Source: source, Target: target}
}

func inGroup(node flow.NodeDefinition, groupID string) flow.NodeDefinition {
	node.ParentGroupID = groupID
	return node
}

func mustRun(runner *Runner, definition *flow.Definition, opts ...RunOption) *Result {
	result, err := runner.Run(context.Background(), definition, opts...)
	if err != nil {
		panic(fmt.Sprintf("unexpected configuration error: %v", err))
	}
	return result
}

func nodeDef(id, nodeType string) flow.NodeDefinition {
	return flow.NodeDefinition{ID: id, Type: nodeType}
}
