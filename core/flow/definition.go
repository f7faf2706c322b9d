package flow

import "strings"

// Definition is the immutable input to a run: the nodes and edges of one flow.
type Definition struct {
	Nodes []NodeDefinition `json:"nodes" yaml:"nodes"`
	Edges []EdgeDefinition `json:"edges" yaml:"edges"`
}

// NodeDefinition declares a single node. Data is the node's configuration and
// is decoded by the node constructor registered for Type.
type NodeDefinition struct {
	ID            string         `json:"id" yaml:"id"`
	Type          string         `json:"type" yaml:"type"`
	Data          map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	ParentGroupID string         `json:"parentGroupId,omitempty" yaml:"parentGroupId,omitempty"`
}

// EdgeDefinition connects Source to Target. Handles are carried through for
// callers that render ports; the engine does not interpret them.
type EdgeDefinition struct {
	Source       string `json:"source" yaml:"source"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	Target       string `json:"target" yaml:"target"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Node returns the first node declared with id.
func (definition *Definition) Node(id string) (NodeDefinition, bool) {
	for _, node := range definition.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return NodeDefinition{}, false
}

// NodeIDs returns the node ids in declaration order.
func (definition *Definition) NodeIDs() []string {
	ids := make([]string, 0, len(definition.Nodes))
	for _, node := range definition.Nodes {
		ids = append(ids, node.ID)
	}
	return ids
}

// InternalNodes returns the nodes whose ParentGroupID is groupID, in
// declaration order.
func (definition *Definition) InternalNodes(groupID string) []NodeDefinition {
	var internal []NodeDefinition
	for _, node := range definition.Nodes {
		if node.ParentGroupID == groupID {
			internal = append(internal, node)
		}
	}
	return internal
}

// Label returns the node's display name: data.label when set, otherwise the
// type followed by the last four characters of the id.
func (node NodeDefinition) Label() string {
	if label, ok := node.Data["label"].(string); ok && strings.TrimSpace(label) != "" {
		return label
	}
	suffix := node.ID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	if node.Type == "" {
		return suffix
	}
	return node.Type + "-" + suffix
}
