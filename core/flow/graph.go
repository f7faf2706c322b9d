package flow

// UnreachableDepth is assigned to nodes no root can reach: members of pure
// cycles and nodes whose only parents are themselves unreachable.
const UnreachableDepth = 1 << 30

// unresolvedDepth marks a node not yet visited by the depth pass.
const unresolvedDepth = -1

// GraphNode is the adjacency record of one node.
type GraphNode struct {
	ID            string
	Type          string
	Data          map[string]any
	ParentGroupID string

	// ParentIDs is the set of nodes with an edge into this node.
	ParentIDs map[string]struct{}

	// ChildIDs lists edge targets in edge declaration order, without duplicates.
	ChildIDs []string

	// Depth is the shortest distance from any root, or UnreachableDepth.
	Depth int
}

// IsRoot reports whether the node has no incoming edges.
func (node *GraphNode) IsRoot() bool {
	return len(node.ParentIDs) == 0
}

// Graph is the adjacency structure built from a Definition.
type Graph struct {
	// Nodes maps node id to its record.
	Nodes map[string]*GraphNode

	// Order holds node ids in declaration order.
	Order []string

	// Roots holds the ids of nodes without incoming edges, in declaration order.
	Roots []string
}

// BuildGraph links nodes and edges into a Graph.
//
// Edges referencing an unknown id are ignored and duplicate edges collapse.
// Depths are assigned breadth-first from the roots with the lowest reachable
// depth winning; unreached nodes get UnreachableDepth. When ids repeat, the
// first declaration wins.
func BuildGraph(nodes []NodeDefinition, edges []EdgeDefinition) *Graph {
	graph := &Graph{
		Nodes: make(map[string]*GraphNode, len(nodes)),
		Order: make([]string, 0, len(nodes)),
	}

	for _, node := range nodes {
		if _, exists := graph.Nodes[node.ID]; exists {
			continue
		}
		graph.Nodes[node.ID] = &GraphNode{
			ID:            node.ID,
			Type:          node.Type,
			Data:          node.Data,
			ParentGroupID: node.ParentGroupID,
			ParentIDs:     make(map[string]struct{}),
			ChildIDs:      make([]string, 0),
			Depth:         unresolvedDepth,
		}
		graph.Order = append(graph.Order, node.ID)
	}

	for _, edge := range edges {
		source, sourceOK := graph.Nodes[edge.Source]
		target, targetOK := graph.Nodes[edge.Target]
		if !sourceOK || !targetOK {
			continue
		}
		if _, linked := target.ParentIDs[source.ID]; linked {
			continue
		}
		target.ParentIDs[source.ID] = struct{}{}
		source.ChildIDs = append(source.ChildIDs, target.ID)
	}

	queue := make([]string, 0, len(graph.Order))
	for _, id := range graph.Order {
		node := graph.Nodes[id]
		if node.IsRoot() {
			graph.Roots = append(graph.Roots, id)
			node.Depth = 0
			queue = append(queue, id)
		}
	}

	// Breadth-first visiting guarantees the first assignment is the lowest.
	for len(queue) > 0 {
		current := graph.Nodes[queue[0]]
		queue = queue[1:]
		for _, childID := range current.ChildIDs {
			child := graph.Nodes[childID]
			if child.Depth != unresolvedDepth {
				continue
			}
			child.Depth = current.Depth + 1
			queue = append(queue, childID)
		}
	}

	for _, node := range graph.Nodes {
		if node.Depth == unresolvedDepth {
			node.Depth = UnreachableDepth
		}
	}

	return graph
}

// Node returns the record for id, or nil.
func (graph *Graph) Node(id string) *GraphNode {
	return graph.Nodes[id]
}

// Children returns the child ids of id in edge order.
func (graph *Graph) Children(id string) []string {
	if node := graph.Nodes[id]; node != nil {
		return node.ChildIDs
	}
	return nil
}

// Levels groups reachable node ids by depth, each level in declaration order.
func (graph *Graph) Levels() [][]string {
	var levels [][]string
	for _, id := range graph.Order {
		depth := graph.Nodes[id].Depth
		if depth == UnreachableDepth {
			continue
		}
		for len(levels) <= depth {
			levels = append(levels, nil)
		}
		levels[depth] = append(levels[depth], id)
	}
	return levels
}

// Unreachable returns the ids of nodes no root reaches, in declaration order.
func (graph *Graph) Unreachable() []string {
	var unreachable []string
	for _, id := range graph.Order {
		if graph.Nodes[id].Depth == UnreachableDepth {
			unreachable = append(unreachable, id)
		}
	}
	return unreachable
}

// Leaves returns the ids of nodes without outgoing edges, in declaration order.
func (graph *Graph) Leaves() []string {
	var leaves []string
	for _, id := range graph.Order {
		if len(graph.Nodes[id].ChildIDs) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
