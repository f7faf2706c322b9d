package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/leofalp/aigoflow/providers/observability"
)

// GroupConfig is the data of a group node.
type GroupConfig struct {
	Label           string           `mapstructure:"label"`
	IterationConfig *IterationConfig `mapstructure:"iterationConfig"`
}

// IterationConfig turns a group into a loop over the output of SourceNodeID.
type IterationConfig struct {
	SourceNodeID string `mapstructure:"sourceNodeId"`
}

// NodeOutput is the result of one internal root of a group.
type NodeOutput struct {
	NodeID string `json:"nodeId"`
	Result any    `json:"result"`
}

// IterationResult is what one iteration of a group produced. Outputs hold the
// results of the internal roots, Leaves those of the internal leaves.
type IterationResult struct {
	Index   int          `json:"index"`
	Item    any          `json:"item"`
	Outputs []NodeOutput `json:"outputs"`
	Leaves  []NodeOutput `json:"leaves"`
}

type groupNode struct {
	id     string
	run    *Run
	config GroupConfig
}

func newGroupNode(scope Scope) (Node, error) {
	var config GroupConfig
	if err := DecodeConfig(scope.Data(), &config); err != nil {
		return nil, err
	}
	return &groupNode{id: scope.ID(), run: scope.Run, config: config}, nil
}

// Execute runs the internal sub-graph once, or once per source item.
func (group *groupNode) Execute(ctx context.Context, input any) (any, error) {
	if group.config.IterationConfig != nil && group.config.IterationConfig.SourceNodeID != "" {
		return group.iterate(ctx, input)
	}

	outputs := make([]NodeOutput, 0)
	for _, rootID := range group.internalRoots("") {
		if err := group.run.Process(ctx, rootID, input); err != nil {
			group.run.execCtx.Log(group.id, "internal root failed", observability.String(observability.AttrFlowNodeID, rootID), observability.Error(err))
			if ctx.Err() != nil {
				return nil, err
			}
		}
		outputs = group.appendSuccessful(outputs, rootID)
	}
	return outputs, nil
}

func (group *groupNode) iterate(ctx context.Context, input any) (any, error) {
	sourceID := group.config.IterationConfig.SourceNodeID
	items, err := group.sourceItems(ctx, sourceID, input)
	if err != nil {
		return nil, err
	}

	execCtx := group.run.execCtx
	owned := group.ownedNodes(sourceID)
	roots := group.internalRoots(sourceID)
	leaves := group.internalLeaves(sourceID)

	results := make([]IterationResult, 0, len(items))
	for index, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("iteration %d canceled: %w", index, err)
		}

		execCtx.PushIteration(IterationState{GroupID: group.id, Item: item, Index: index, Total: len(items)})
		execCtx.Reset(owned)
		group.run.dropInstances(owned)

		iterationCtx, span := group.run.observeIterationStart(ctx, group.id, index, len(items))
		iteration, err := group.runIteration(iterationCtx, roots, leaves, index, item)
		endIterationSpan(span, err)
		execCtx.PopIteration()

		if err != nil {
			return nil, fmt.Errorf("iteration %d of %d: %w", index, len(items), err)
		}
		results = append(results, iteration)
	}
	return results, nil
}

func (group *groupNode) runIteration(ctx context.Context, roots, leaves []string, index int, item any) (IterationResult, error) {
	iteration := IterationResult{
		Index:   index,
		Item:    item,
		Outputs: make([]NodeOutput, 0, len(roots)),
		Leaves:  make([]NodeOutput, 0, len(leaves)),
	}
	for _, rootID := range roots {
		if err := group.run.Process(ctx, rootID, item); err != nil {
			return iteration, err
		}
		iteration.Outputs = group.appendSuccessful(iteration.Outputs, rootID)
	}
	for _, leafID := range leaves {
		iteration.Leaves = group.appendSuccessful(iteration.Leaves, leafID)
	}
	return iteration, nil
}

// sourceItems executes the source if needed and returns its items.
func (group *groupNode) sourceItems(ctx context.Context, sourceID string, input any) ([]any, error) {
	run := group.run
	if _, ok := run.definition.Node(sourceID); !ok {
		return nil, &ConfigurationError{NodeID: group.id, Reason: fmt.Sprintf("iteration source %q", sourceID), Err: ErrStartNodeNotFound}
	}

	if run.execCtx.Status(sourceID) != StatusSuccess {
		if run.execCtx.HasExecuted(sourceID) {
			return nil, fmt.Errorf("iteration source %q failed: %w", sourceID, run.execCtx.State(sourceID).Err)
		}
		if _, err := run.ExecuteNode(ctx, sourceID, input); err != nil {
			return nil, fmt.Errorf("iteration source %q: %w", sourceID, err)
		}
	}

	if node, err := run.Instance(sourceID); err == nil {
		if source, ok := node.(ItemSource); ok {
			return source.Items(), nil
		}
	}

	output, _ := run.execCtx.Output(sourceID)
	items, ok := asSequence(output)
	if !ok {
		return nil, &ConfigurationError{
			NodeID: group.id,
			Reason: fmt.Sprintf("output of %q is %T", sourceID, output),
			Err:    ErrNotSequence,
		}
	}
	return items, nil
}

// asSequence converts any slice or array to []any.
func asSequence(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	if value == nil {
		return nil, false
	}
	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array {
		return nil, false
	}
	if reflected.Kind() == reflect.Slice && reflected.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, reflected.Len())
	for i := range items {
		items[i] = reflected.Index(i).Interface()
	}
	return items, true
}

func (group *groupNode) appendSuccessful(outputs []NodeOutput, nodeID string) []NodeOutput {
	state := group.run.execCtx.State(nodeID)
	if state.Status != StatusSuccess {
		return outputs
	}
	return append(outputs, NodeOutput{NodeID: nodeID, Result: state.Result})
}

// internalIDs returns the direct members of the group, in declaration order.
func (group *groupNode) internalIDs(exclude string) []string {
	var ids []string
	for _, node := range group.run.definition.InternalNodes(group.id) {
		if node.ID != exclude && node.ID != group.id {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

// internalRoots returns members without an incoming edge from another member.
func (group *groupNode) internalRoots(exclude string) []string {
	members := group.memberSet(exclude)
	var roots []string
	for _, id := range group.internalIDs(exclude) {
		root := true
		for parentID := range group.run.graph.Node(id).ParentIDs {
			if members[parentID] {
				root = false
				break
			}
		}
		if root {
			roots = append(roots, id)
		}
	}
	return roots
}

// internalLeaves returns members without an outgoing edge to another member.
func (group *groupNode) internalLeaves(exclude string) []string {
	members := group.memberSet(exclude)
	var leaves []string
	for _, id := range group.internalIDs(exclude) {
		leaf := true
		for _, childID := range group.run.graph.Node(id).ChildIDs {
			if members[childID] {
				leaf = false
				break
			}
		}
		if leaf {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

func (group *groupNode) memberSet(exclude string) map[string]bool {
	members := make(map[string]bool)
	for _, id := range group.internalIDs(exclude) {
		members[id] = true
	}
	return members
}

// ownedNodes returns every node nested in the group at any depth, which is
// the set an iteration resets.
func (group *groupNode) ownedNodes(exclude string) []string {
	var owned []string
	pending := []string{group.id}
	for len(pending) > 0 {
		parentID := pending[0]
		pending = pending[1:]
		for _, node := range group.run.definition.InternalNodes(parentID) {
			if node.ID == exclude || node.ID == group.id {
				continue
			}
			owned = append(owned, node.ID)
			pending = append(pending, node.ID)
		}
	}
	return owned
}
