package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/leofalp/aigoflow/core/flow"
)

func TestRun_LinearChain(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("b"), echo("c")},
		Edges: []flow.EdgeDefinition{link("a", "b"), link("b", "c")},
	}

	result := mustRun(runner, definition)

	if result.Err != nil {
		t.Fatalf("unexpected branch error: %v", result.Err)
	}
	if got := rec.order(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("execution order = %v", got)
	}
	if len(result.Outputs) != 1 || result.Outputs[0].NodeID != "c" || result.Outputs[0].Result != "a>b>c" {
		t.Errorf("Outputs = %+v", result.Outputs)
	}
	if result.ExecutionID == "" || result.ExecutionID != result.Context.ID() {
		t.Errorf("expected execution id to match the context, got %q", result.ExecutionID)
	}
}

func TestRun_StartNodesReceiveEmptyInput(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	mustRun(runner, &flow.Definition{Nodes: []flow.NodeDefinition{echo("a")}})

	input, ok := rec.calls[0].input.(map[string]any)
	if !ok || len(input) != 0 {
		t.Errorf("expected empty map input, got %#v", rec.calls[0].input)
	}
}

func TestRun_DepthFirstInEdgeOrder(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("b"), echo("c"), echo("d")},
		Edges: []flow.EdgeDefinition{link("a", "b"), link("a", "c"), link("b", "d")},
	}

	mustRun(runner, definition)

	if got := rec.order(); !reflect.DeepEqual(got, []string{"a", "b", "d", "c"}) {
		t.Errorf("execution order = %v, want [a b d c]", got)
	}
}

func TestRun_DiamondExecutesJoinOnce(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("b"), echo("c"), echo("d")},
		Edges: []flow.EdgeDefinition{link("a", "b"), link("a", "c"), link("b", "d"), link("c", "d")},
	}

	result := mustRun(runner, definition)

	if rec.count("d") != 1 {
		t.Errorf("expected d to execute once, got %d", rec.count("d"))
	}
	if output, _ := result.Context.Output("d"); output != "a>b>d" {
		t.Errorf("expected d to keep the first input path, got %v", output)
	}
}

func TestRun_CycleOnlyFlowCompletes(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("b")},
		Edges: []flow.EdgeDefinition{link("a", "b"), link("b", "a")},
	}

	result := mustRun(runner, definition)

	if result.Err != nil || len(rec.order()) != 0 || len(result.Outputs) != 0 {
		t.Errorf("expected a quiet no-op run, got err=%v calls=%v outputs=%v", result.Err, rec.order(), result.Outputs)
	}
}

func TestRun_CycleReachableFromRootTerminates(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("root"), echo("a"), echo("b")},
		Edges: []flow.EdgeDefinition{link("root", "a"), link("a", "b"), link("b", "a")},
	}

	mustRun(runner, definition)

	if got := rec.order(); !reflect.DeepEqual(got, []string{"root", "a", "b"}) {
		t.Errorf("execution order = %v", got)
	}
}

func TestRun_NilResultStopsPropagation(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a", map[string]any{"stop": true}), echo("b")},
		Edges: []flow.EdgeDefinition{link("a", "b")},
	}

	result := mustRun(runner, definition)

	if rec.count("b") != 0 {
		t.Error("child of a nil-result node must not run")
	}
	if result.Context.Status("a") != StatusSuccess {
		t.Errorf("status(a) = %s, want success", result.Context.Status("a"))
	}
}

func TestRun_UnknownNodeTypeIsConfigurationError(t *testing.T) {
	runner := NewRunner(newTestFactory(&recorder{}))
	definition := &flow.Definition{Nodes: []flow.NodeDefinition{{ID: "x", Type: "teleport"}}}

	_, err := runner.Run(context.Background(), definition)

	if !errors.Is(err, ErrUnknownNodeType) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected unknown type configuration error, got %v", err)
	}
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) || configErr.NodeID != "x" {
		t.Errorf("expected ConfigurationError for x, got %#v", err)
	}
}

func TestRun_MissingStartNode(t *testing.T) {
	runner := NewRunner(newTestFactory(&recorder{}))
	definition := &flow.Definition{Nodes: []flow.NodeDefinition{echo("a")}}

	_, err := runner.Run(context.Background(), definition, WithStartNode("ghost"))

	if !errors.Is(err, ErrStartNodeNotFound) {
		t.Errorf("expected ErrStartNodeNotFound, got %v", err)
	}
}

func TestRun_ExplicitStartNode(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("b"), echo("other")},
		Edges: []flow.EdgeDefinition{link("a", "b")},
	}

	result := mustRun(runner, definition, WithStartNode("b"), WithInputs(map[string]any{"b": "seed"}))

	if got := rec.order(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("execution order = %v, want [b]", got)
	}
	if result.Context.TriggerNodeID() != "b" {
		t.Errorf("TriggerNodeID = %q", result.Context.TriggerNodeID())
	}
	// a is a source and never ran: only b is collected.
	if len(result.Outputs) != 1 || result.Outputs[0].NodeID != "b" || result.Outputs[0].Result != "seed>b" {
		t.Errorf("Outputs = %+v", result.Outputs)
	}
}

func TestRun_FailFastStopsSiblings(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("x", map[string]any{"fail": true}), echo("y"), echo("x2")},
		Edges: []flow.EdgeDefinition{link("a", "x"), link("a", "y"), link("x", "x2")},
	}

	result := mustRun(runner, definition)

	if rec.count("y") != 0 || rec.count("x2") != 0 {
		t.Errorf("expected the branch to stop, got calls %v", rec.order())
	}
	if !errors.Is(result.Err, ErrExecution) || !errors.Is(result.Err, errBoom) {
		t.Errorf("expected execution error wrapping errBoom, got %v", result.Err)
	}
	var execErr *ExecutionError
	if !errors.As(result.Err, &execErr) || execErr.NodeID != "x" || execErr.NodeType != "echo" {
		t.Errorf("expected ExecutionError for x, got %#v", result.Err)
	}
	if result.Context.Status("x") != StatusError || result.Context.Status("a") != StatusSuccess {
		t.Errorf("unexpected statuses x=%s a=%s", result.Context.Status("x"), result.Context.Status("a"))
	}
}

func TestRun_ContinueOnErrorRunsSiblings(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec), WithErrorStrategy(ErrorStrategyContinueOnError))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("x", map[string]any{"fail": true}), echo("y"), echo("x2")},
		Edges: []flow.EdgeDefinition{link("a", "x"), link("a", "y"), link("x", "x2")},
	}

	result := mustRun(runner, definition)

	if rec.count("y") != 1 {
		t.Error("expected sibling y to run")
	}
	if rec.count("x2") != 0 {
		t.Error("descendant of a failed node must not run")
	}
	if result.Err == nil {
		t.Error("expected the failure to be reported")
	}
}

func TestRun_RootsAreIndependent(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("r1", map[string]any{"fail": true}), echo("r2")},
	}

	result := mustRun(runner, definition)

	if rec.count("r2") != 1 {
		t.Error("second root must run after the first failed")
	}
	if len(result.Outputs) != 1 || result.Outputs[0].NodeID != "r2" {
		t.Errorf("Outputs = %+v", result.Outputs)
	}
}

func TestRun_StatusObserverSeesTransitions(t *testing.T) {
	var (
		mu     sync.Mutex
		events []StatusEvent
	)
	observer := StatusObserverFunc(func(event StatusEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	})
	runner := NewRunner(newTestFactory(&recorder{}), WithStatusObserver(observer))

	result := mustRun(runner, &flow.Definition{Nodes: []flow.NodeDefinition{echo("a")}})

	if len(events) != 2 {
		t.Fatalf("expected running+success events, got %+v", events)
	}
	if events[0].Status != StatusRunning || events[1].Status != StatusSuccess {
		t.Errorf("unexpected statuses %s, %s", events[0].Status, events[1].Status)
	}
	if events[1].Version <= events[0].Version {
		t.Error("expected versions to increase")
	}
	if events[1].ExecutionID != result.ExecutionID || events[1].Result != "a" {
		t.Errorf("unexpected event %+v", events[1])
	}
}

func TestRun_CanceledContext(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx, &flow.Definition{Nodes: []flow.NodeDefinition{echo("a")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.Err)
	}
	if len(rec.order()) != 0 {
		t.Error("no node should run on a canceled context")
	}
}

func TestRun_GroupInternalNodesAreNotStartNodes(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(newTestFactory(rec))
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("top"), inGroup(echo("inner"), "missing-group")},
	}

	mustRun(runner, definition)

	if rec.count("inner") != 0 {
		t.Error("a node inside a group must not start on its own")
	}
}

// countingMerger is a reentrant node that counts its visits.
type countingMerger struct {
	visits int
}

func (m *countingMerger) Execute(ctx context.Context, input any) (any, error) {
	m.visits++
	return m.visits, nil
}

func (m *countingMerger) AcceptsRevisits() bool { return true }

func TestRun_ReentrantNodeRefreshesWithoutPropagating(t *testing.T) {
	rec := &recorder{}
	factory := newTestFactory(rec)
	merger := &countingMerger{}
	factory.Register("count", func(scope Scope) (Node, error) { return merger, nil })

	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{echo("a"), echo("b"), echo("c"), {ID: "m", Type: "count"}, echo("after")},
		Edges: []flow.EdgeDefinition{link("a", "b"), link("a", "c"), link("b", "m"), link("c", "m"), link("m", "after")},
	}

	result := mustRun(NewRunner(factory), definition)

	if merger.visits != 2 {
		t.Errorf("expected 2 visits, got %d", merger.visits)
	}
	if output, _ := result.Context.Output("m"); output != 2 {
		t.Errorf("expected refreshed snapshot 2, got %v", output)
	}
	if rec.count("after") != 1 {
		t.Errorf("expected downstream to run once, got %d", rec.count("after"))
	}
}

func TestCollectOutputs_OnlySuccessfulLeaves(t *testing.T) {
	definition := &flow.Definition{
		Nodes: []flow.NodeDefinition{
			{ID: "A", Type: "echo"},
			{ID: "B", Type: "echo", Data: map[string]any{"label": "Final"}},
			{ID: "C", Type: "echo"},
		},
		Edges: []flow.EdgeDefinition{link("A", "B")},
	}
	execCtx := NewExecutionContext("")
	for _, id := range []string{"A", "B"} {
		_ = execCtx.MarkRunning(id)
		_ = execCtx.MarkSuccess(id, id+"-out")
		execCtx.StoreOutput(id, id+"-out")
	}
	_ = execCtx.MarkRunning("C")
	_ = execCtx.MarkError("C", errBoom)

	outputs := CollectOutputs(definition, execCtx)

	want := []Output{{NodeID: "B", NodeName: "Final", NodeType: "echo", Result: "B-out"}}
	if !reflect.DeepEqual(outputs, want) {
		t.Errorf("CollectOutputs() = %+v, want %+v", outputs, want)
	}
}
