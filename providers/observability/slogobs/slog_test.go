package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/leofalp/aigoflow/providers/observability"
)

func newTestObserver(buf *bytes.Buffer, level slog.Level) *Observer {
	return New(WithFormat(FormatJSON), WithLevel(level), WithOutput(buf))
}

func TestObserver_StartSpanAttachesToContext(t *testing.T) {
	buf := &bytes.Buffer{}
	observer := newTestObserver(buf, slog.LevelDebug)

	ctx, span := observer.StartSpan(context.Background(), observability.SpanFlowRun,
		observability.String(observability.AttrFlowExecutionID, "exec-1"))

	if observability.SpanFromContext(ctx) != span {
		t.Fatal("expected span to be attached to the returned context")
	}

	span.SetStatus(observability.StatusOK, "done")
	span.End()

	output := buf.String()
	for _, want := range []string{`"span started"`, `"span ended"`, `"flow":{"execution.id":"exec-1"}`, `"status":"ok"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %s, got %q", want, output)
		}
	}
}

func TestObserver_RecordErrorLogsAtError(t *testing.T) {
	buf := &bytes.Buffer{}
	observer := newTestObserver(buf, slog.LevelError)

	_, span := observer.StartSpan(context.Background(), "op")
	span.RecordError(errors.New("boom"))
	span.RecordError(nil)

	output := buf.String()
	if strings.Count(output, `"boom"`) != 1 {
		t.Errorf("expected exactly one error record, got %q", output)
	}
	if strings.Contains(output, "span started") {
		t.Errorf("DEBUG span start should be filtered at ERROR level, got %q", output)
	}
}

func TestObserver_CounterAccumulates(t *testing.T) {
	observer := newTestObserver(&bytes.Buffer{}, slog.LevelInfo)
	ctx := context.Background()

	observer.Counter(observability.MetricNodeCount).Add(ctx, 2)
	observer.Counter(observability.MetricNodeCount).Add(ctx, 3)

	if got := observer.CounterValue(observability.MetricNodeCount); got != 5 {
		t.Errorf("CounterValue() = %d, want 5", got)
	}
	if got := observer.CounterValue("missing"); got != 0 {
		t.Errorf("CounterValue(missing) = %d, want 0", got)
	}
}

func TestObserver_HistogramSummary(t *testing.T) {
	observer := newTestObserver(&bytes.Buffer{}, slog.LevelInfo)
	ctx := context.Background()

	for _, value := range []float64{0.5, 2, 1} {
		observer.Histogram(observability.MetricNodeDuration).Record(ctx, value)
	}

	summary, ok := observer.HistogramSummary(observability.MetricNodeDuration)
	if !ok {
		t.Fatal("expected a summary for a recorded histogram")
	}
	want := Summary{Count: 3, Sum: 3.5, Min: 0.5, Max: 2}
	if summary != want {
		t.Errorf("HistogramSummary() = %+v, want %+v", summary, want)
	}
	if _, ok := observer.HistogramSummary("missing"); ok {
		t.Error("expected no summary for an unused histogram")
	}
}

// TestObserver_SpanScopeIsInherited checks that a record emitted under a node
// span carries the run's execution id and the node id in one "flow" group.
func TestObserver_SpanScopeIsInherited(t *testing.T) {
	buf := &bytes.Buffer{}
	observer := newTestObserver(buf, slog.LevelInfo)

	ctx, runSpan := observer.StartSpan(context.Background(), observability.SpanFlowRun,
		observability.String(observability.AttrFlowExecutionID, "exec-1"),
		observability.Int(observability.AttrFlowTotalNodes, 2))
	nodeCtx, nodeSpan := observer.StartSpan(ctx, observability.SpanFlowNodeExecute,
		observability.String(observability.AttrFlowNodeID, "fetch"))

	observer.Info(nodeCtx, "node-msg", observability.String("detail", "x"))
	nodeSpan.End()
	observer.Info(ctx, "run-msg")
	runSpan.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 INFO records, got %d: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatal(err)
	}
	wantFlow := map[string]any{"execution.id": "exec-1", "node.id": "fetch"}
	if !reflect.DeepEqual(record["flow"], wantFlow) {
		t.Errorf("node record flow group = %v, want %v", record["flow"], wantFlow)
	}
	if record["detail"] != "x" {
		t.Errorf("expected plain attributes to stay flat, got %v", record)
	}
	if _, leaked := record["flow.total_nodes"]; leaked {
		t.Error("span attributes that are not scope keys must not be inherited")
	}

	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(record["flow"], map[string]any{"execution.id": "exec-1"}) {
		t.Errorf("run record flow group = %v", record["flow"])
	}
}

func TestObserver_FailedSpanEndsAtWarn(t *testing.T) {
	buf := &bytes.Buffer{}
	observer := newTestObserver(buf, slog.LevelWarn)

	_, span := observer.StartSpan(context.Background(), observability.SpanFlowNodeExecute,
		observability.String(observability.AttrFlowNodeID, "n1"))
	span.RecordError(errors.New("boom"))
	span.SetStatus(observability.StatusError, "boom")
	span.End()

	output := buf.String()
	if !strings.Contains(output, `"level":"WARN","msg":"span ended"`) {
		t.Errorf("expected failed span end at WARN, got %q", output)
	}
	if !strings.Contains(output, `"flow":{"node.id":"n1"}`) {
		t.Errorf("expected node scope on span records, got %q", output)
	}
}

func TestObserver_LogLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	observer := newTestObserver(buf, slog.LevelInfo)
	ctx := context.Background()

	observer.Trace(ctx, "trace-msg")
	observer.Debug(ctx, "debug-msg")
	observer.Info(ctx, "info-msg", observability.String(observability.AttrFlowNodeID, "n1"))
	observer.Warn(ctx, "warn-msg")
	observer.Error(ctx, "error-msg")

	output := buf.String()
	for _, hidden := range []string{"trace-msg", "debug-msg"} {
		if strings.Contains(output, hidden) {
			t.Errorf("%s should be filtered at INFO level", hidden)
		}
	}
	for _, shown := range []string{"info-msg", "warn-msg", "error-msg", `"flow":{"node.id":"n1"}`} {
		if !strings.Contains(output, shown) {
			t.Errorf("expected output to contain %s, got %q", shown, output)
		}
	}
}

func TestObserver_WithLoggerIsUsedDirectly(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	observer := New(WithLogger(logger))

	if observer.Logger() != logger {
		t.Error("expected Logger() to return the injected logger")
	}
}
