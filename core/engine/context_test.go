package engine

import (
	"errors"
	"reflect"
	"testing"
)

func TestExecutionContext_Lifecycle(t *testing.T) {
	execCtx := NewExecutionContext("run-1")

	if execCtx.ID() != "run-1" {
		t.Errorf("ID() = %q", execCtx.ID())
	}
	if execCtx.Status("a") != StatusIdle {
		t.Errorf("unknown node should be idle, got %s", execCtx.Status("a"))
	}
	if err := execCtx.MarkRunning("a"); err != nil {
		t.Fatalf("idle -> running: %v", err)
	}
	if err := execCtx.MarkRunning("a"); err != nil {
		t.Errorf("running -> running should be a no-op, got %v", err)
	}
	if err := execCtx.MarkSuccess("a", 42); err != nil {
		t.Fatalf("running -> success: %v", err)
	}
	if state := execCtx.State("a"); state.Result != 42 || state.Status != StatusSuccess {
		t.Errorf("unexpected state %+v", state)
	}
	if err := execCtx.MarkRunning("a"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("success -> running should be rejected, got %v", err)
	}
	if err := execCtx.MarkSuccess("a", 43); err != nil {
		t.Errorf("success -> success refresh should be allowed, got %v", err)
	}

	_ = execCtx.MarkRunning("b")
	_ = execCtx.MarkError("b", errBoom)
	if err := execCtx.MarkSuccess("b", 1); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error -> success should be rejected, got %v", err)
	}
	if state := execCtx.State("b"); !errors.Is(state.Err, errBoom) {
		t.Errorf("expected error to be recorded, got %+v", state)
	}
}

func TestExecutionContext_VersionIsMonotonic(t *testing.T) {
	execCtx := NewExecutionContext("")
	if execCtx.ID() == "" {
		t.Fatal("expected a generated id")
	}

	_ = execCtx.MarkRunning("a")
	first := execCtx.State("a").Version
	_ = execCtx.MarkSuccess("a", nil)
	second := execCtx.State("a").Version
	_ = execCtx.MarkRunning("b")

	if !(first < second && second < execCtx.Version()) {
		t.Errorf("versions not increasing: %d, %d, %d", first, second, execCtx.Version())
	}
}

func TestExecutionContext_ResetOnlyTouchesGivenNodes(t *testing.T) {
	execCtx := NewExecutionContext("")
	for _, id := range []string{"a", "b"} {
		_ = execCtx.MarkRunning(id)
		_ = execCtx.MarkSuccess(id, id)
		execCtx.MarkExecuted(id)
		execCtx.StoreOutput(id, id)
	}

	execCtx.Reset([]string{"a"})

	if execCtx.HasExecuted("a") || execCtx.Status("a") != StatusIdle {
		t.Error("a should be reset")
	}
	if !execCtx.HasExecuted("b") || execCtx.Status("b") != StatusSuccess {
		t.Error("b must be untouched")
	}
	if output, ok := execCtx.Output("a"); !ok || output != "a" {
		t.Error("outputs survive a reset")
	}
}

func TestExecutionContext_IterationStack(t *testing.T) {
	execCtx := NewExecutionContext("")
	execCtx.PushIteration(IterationState{GroupID: "outer", Index: 1})
	execCtx.PushIteration(IterationState{GroupID: "inner", Index: 0})

	if state, ok := execCtx.Iteration(); !ok || state.GroupID != "inner" {
		t.Errorf("expected inner iteration, got %+v", state)
	}
	execCtx.PopIteration()
	if state, _ := execCtx.Iteration(); state.GroupID != "outer" {
		t.Errorf("expected outer iteration to be restored, got %+v", state)
	}
	execCtx.PopIteration()
	execCtx.PopIteration()
	if _, ok := execCtx.Iteration(); ok {
		t.Error("expected no active iteration")
	}
}

func TestExecutionContext_AccumulatedOnceAndTrigger(t *testing.T) {
	execCtx := NewExecutionContext("")
	if execCtx.HasAccumulatedOnce("sink") {
		t.Error("expected fresh context to have no accumulations")
	}
	execCtx.MarkAccumulatedOnce("sink")
	if !execCtx.HasAccumulatedOnce("sink") {
		t.Error("expected accumulation to be recorded")
	}

	execCtx.SetTriggerNodeID("start")
	if execCtx.TriggerNodeID() != "start" {
		t.Errorf("TriggerNodeID() = %q", execCtx.TriggerNodeID())
	}
}

func TestExecutionContext_LogIsFIFO(t *testing.T) {
	execCtx := NewExecutionContext("")
	execCtx.Log("a", "first")
	execCtx.Log("b", "second")
	execCtx.Log("", "third")

	var messages []string
	for _, entry := range execCtx.Logs() {
		messages = append(messages, entry.Message)
	}
	if !reflect.DeepEqual(messages, []string{"first", "second", "third"}) {
		t.Errorf("Logs() = %v", messages)
	}
}

func TestDecodeConfig_WeakTyping(t *testing.T) {
	type config struct {
		Count   int      `mapstructure:"count"`
		Enabled bool     `mapstructure:"enabled"`
		Fields  []string `mapstructure:"fields"`
		Name    string   `mapstructure:"name"`
	}

	var cfg config
	err := DecodeConfig(map[string]any{
		"count":   float64(3),
		"enabled": "true",
		"fields":  "id",
		"name":    "x",
		"extra":   "ignored",
	}, &cfg)
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	want := config{Count: 3, Enabled: true, Fields: []string{"id"}, Name: "x"}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("DecodeConfig() = %+v, want %+v", cfg, want)
	}

	if err := DecodeConfig(map[string]any{"count": "many"}, &cfg); err == nil {
		t.Error("expected error for a non-numeric count")
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory()
	if !factory.Has(GroupNodeType) {
		t.Error("group must be built in")
	}
	factory.Register("b", func(scope Scope) (Node, error) { return nil, errBoom })
	factory.Register("a", func(scope Scope) (Node, error) { return NodeFunc(nil), nil })

	if got := factory.Types(); !reflect.DeepEqual(got, []string{"a", "b", GroupNodeType}) {
		t.Errorf("Types() = %v", got)
	}

	_, err := factory.New(Scope{})
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("expected ErrUnknownNodeType, got %v", err)
	}
	_, err = factory.New(Scope{Node: nodeDef("x", "b")})
	if !errors.Is(err, ErrConfiguration) || !errors.Is(err, errBoom) {
		t.Errorf("expected constructor error to be a configuration error, got %v", err)
	}
}

func TestIsEmptyInput(t *testing.T) {
	tests := []struct {
		input any
		want  bool
	}{
		{input: nil, want: true},
		{input: "", want: true},
		{input: map[string]any{}, want: true},
		{input: []any{}, want: true},
		{input: "x", want: false},
		{input: map[string]any{"k": 1}, want: false},
		{input: []any{nil}, want: false},
		{input: 0, want: false},
	}
	for _, tt := range tests {
		if got := IsEmptyInput(tt.input); got != tt.want {
			t.Errorf("IsEmptyInput(%#v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
