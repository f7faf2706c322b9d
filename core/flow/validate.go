package flow

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Report describes the structure of a Definition.
type Report struct {
	Roots         []string
	Levels        [][]string
	Unreachable   []string
	DanglingEdges []EdgeDefinition
	DuplicateIDs  []string
	UnknownTypes  map[string][]string // type -> node ids
	MissingGroups []string            // node ids whose parentGroupId is not a node
	GroupCycles   []string            // node ids nested, at some depth, in themselves
}

// Validate inspects definition. known reports whether a node type is
// registered and may be nil to skip that check.
func Validate(definition *Definition, known func(nodeType string) bool) *Report {
	graph := BuildGraph(definition.Nodes, definition.Edges)
	report := &Report{
		Roots:        graph.Roots,
		Levels:       graph.Levels(),
		Unreachable:  graph.Unreachable(),
		UnknownTypes: make(map[string][]string),
	}

	seen := make(map[string]bool, len(definition.Nodes))
	for _, node := range definition.Nodes {
		if seen[node.ID] {
			report.DuplicateIDs = append(report.DuplicateIDs, node.ID)
		}
		seen[node.ID] = true
		if known != nil && !known(node.Type) {
			report.UnknownTypes[node.Type] = append(report.UnknownTypes[node.Type], node.ID)
		}
	}
	for _, node := range definition.Nodes {
		if node.ParentGroupID != "" && !seen[node.ParentGroupID] {
			report.MissingGroups = append(report.MissingGroups, node.ID)
		}
	}
	report.GroupCycles = groupCycles(definition.Nodes)
	for _, edge := range definition.Edges {
		if !seen[edge.Source] || !seen[edge.Target] {
			report.DanglingEdges = append(report.DanglingEdges, edge)
		}
	}

	return report
}

// Err returns the problems that would prevent a run, joined. Dangling edges
// and unreachable nodes are tolerated by the engine and are not errors.
func (report *Report) Err() error {
	var errs []error
	for _, id := range report.DuplicateIDs {
		errs = append(errs, fmt.Errorf("duplicate node ID %q", id))
	}
	for _, nodeType := range slices.Sorted(maps.Keys(report.UnknownTypes)) {
		errs = append(errs, fmt.Errorf("unknown node type %q used by %v", nodeType, report.UnknownTypes[nodeType]))
	}
	for _, id := range report.MissingGroups {
		errs = append(errs, fmt.Errorf("node %q references a missing group", id))
	}
	for _, id := range report.GroupCycles {
		errs = append(errs, fmt.Errorf("node %q is nested in itself", id))
	}
	return errors.Join(errs...)
}

// groupCycles returns, in declaration order, the nodes whose chain of
// parentGroupId links leads back to themselves.
func groupCycles(nodes []NodeDefinition) []string {
	parents := make(map[string]string, len(nodes))
	for _, node := range nodes {
		if _, ok := parents[node.ID]; !ok {
			parents[node.ID] = node.ParentGroupID
		}
	}

	var cycles []string
	for _, node := range nodes {
		current := parents[node.ID]
		for steps := 0; current != "" && steps < len(parents); steps++ {
			if current == node.ID {
				cycles = append(cycles, node.ID)
				break
			}
			current = parents[current]
		}
	}
	return cycles
}
