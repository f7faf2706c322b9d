package engine

import "github.com/leofalp/aigoflow/core/flow"

// Output is the final result of one leaf node.
type Output struct {
	NodeID   string `json:"nodeId"`
	NodeName string `json:"nodeName"`
	NodeType string `json:"nodeType"`
	Result   any    `json:"result"`
}

// CollectOutputs gathers the results of the leaf nodes (nodes that are never
// an edge source) that succeeded with a non-nil result, in declaration order.
func CollectOutputs(definition *flow.Definition, execCtx *ExecutionContext) []Output {
	sources := make(map[string]struct{}, len(definition.Edges))
	for _, edge := range definition.Edges {
		sources[edge.Source] = struct{}{}
	}

	outputs := make([]Output, 0)
	seen := make(map[string]bool, len(definition.Nodes))
	for _, node := range definition.Nodes {
		if seen[node.ID] {
			continue
		}
		seen[node.ID] = true
		if _, isSource := sources[node.ID]; isSource {
			continue
		}
		state := execCtx.State(node.ID)
		if state.Status != StatusSuccess {
			continue
		}
		result, ok := execCtx.Output(node.ID)
		if !ok || result == nil {
			continue
		}
		outputs = append(outputs, Output{
			NodeID:   node.ID,
			NodeName: node.Label(),
			NodeType: node.Type,
			Result:   result,
		})
	}
	return outputs
}
