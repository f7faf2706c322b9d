package engine

import (
	"context"
	"time"

	"github.com/leofalp/aigoflow/internal/utils"
	"github.com/leofalp/aigoflow/providers/observability"
)

// observeRunStart opens the run span and attaches span and provider to ctx.
func (run *Run) observeRunStart(ctx context.Context, startIDs []string) (context.Context, observability.Span) {
	if run.provider == nil {
		return ctx, nil
	}

	attrs := []observability.Attribute{
		observability.String(observability.AttrFlowExecutionID, run.execCtx.ID()),
		observability.Int(observability.AttrFlowTotalNodes, len(run.definition.Nodes)),
		observability.StringSlice(observability.AttrFlowStartNodes, startIDs),
		observability.String(observability.AttrFlowErrorStrategy, string(run.strategy)),
	}
	if trigger := run.execCtx.TriggerNodeID(); trigger != "" {
		attrs = append(attrs, observability.String(observability.AttrFlowTriggerNode, trigger))
	}

	ctx, span := run.provider.StartSpan(ctx, observability.SpanFlowRun, attrs...)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, run.provider)

	run.provider.Info(ctx, "flow run started", attrs...)
	return ctx, span
}

// observeRunEnd records the run duration and closes the run span.
func (run *Run) observeRunEnd(ctx context.Context, span observability.Span, result *Result) {
	if run.provider == nil {
		return
	}

	status := "completed"
	if result.Err != nil {
		status = "partial"
	}

	run.provider.Histogram(observability.MetricRunDuration).Record(ctx, result.Duration.Seconds(),
		observability.String(observability.AttrStatus, status),
	)

	attrs := []observability.Attribute{
		observability.String(observability.AttrFlowExecutionID, result.ExecutionID),
		observability.String(observability.AttrStatus, status),
		observability.Int("flow.outputs", len(result.Outputs)),
		observability.Duration(observability.AttrDuration, result.Duration),
	}
	if result.Err != nil {
		attrs = append(attrs, observability.Error(result.Err))
		run.provider.Warn(ctx, "flow run finished with failed branches", attrs...)
	} else {
		run.provider.Info(ctx, "flow run completed", attrs...)
	}

	if span != nil {
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(observability.StatusError, "flow run "+status)
		} else {
			span.SetStatus(observability.StatusOK, "flow run "+status)
		}
		span.End()
	}
}

// observeNodeStart opens a node span. Returns ctx unchanged when
// observability is disabled.
func (run *Run) observeNodeStart(ctx context.Context, nodeID, nodeType string) context.Context {
	if run.provider == nil {
		return ctx
	}

	attrs := []observability.Attribute{
		observability.String(observability.AttrFlowNodeID, nodeID),
		observability.String(observability.AttrFlowNodeType, nodeType),
	}
	if node := run.graph.Node(nodeID); node != nil {
		attrs = append(attrs, observability.Int(observability.AttrFlowNodeDepth, node.Depth))
	}

	var span observability.Span
	ctx, span = run.provider.StartSpan(ctx, observability.SpanFlowNodeExecute, attrs...)
	ctx = observability.ContextWithSpan(ctx, span)

	run.provider.Debug(ctx, "node execution started", attrs...)
	return ctx
}

func (run *Run) observeNodeCompleted(ctx context.Context, nodeID, nodeType string, result any, duration time.Duration) {
	if run.provider == nil {
		return
	}

	run.provider.Histogram(observability.MetricNodeDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrFlowNodeType, nodeType),
	)
	run.provider.Counter(observability.MetricNodeCount).Add(ctx, 1,
		observability.String(observability.AttrFlowNodeType, nodeType),
		observability.String(observability.AttrStatus, string(StatusSuccess)),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrFlowNodeID, nodeID),
		observability.String(observability.AttrFlowNodeType, nodeType),
		observability.Duration(observability.AttrDuration, duration),
	}
	if result != nil {
		logAttrs = append(logAttrs,
			observability.String("flow.node.output", utils.TruncateString(utils.Stringify(result), 100)),
		)
	}
	run.provider.Info(ctx, "node execution completed", logAttrs...)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.String(observability.AttrStatus, string(StatusSuccess)))
		span.SetStatus(observability.StatusOK, "node completed")
		span.End()
	}
}

func (run *Run) observeNodeFailed(ctx context.Context, nodeID, nodeType string, nodeErr error, duration time.Duration) {
	if run.provider == nil {
		return
	}

	run.provider.Histogram(observability.MetricNodeDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrFlowNodeType, nodeType),
	)
	run.provider.Counter(observability.MetricNodeCount).Add(ctx, 1,
		observability.String(observability.AttrFlowNodeType, nodeType),
		observability.String(observability.AttrStatus, string(StatusError)),
	)

	run.provider.Error(ctx, "node execution failed",
		observability.String(observability.AttrFlowNodeID, nodeID),
		observability.String(observability.AttrFlowNodeType, nodeType),
		observability.Error(nodeErr),
		observability.Duration(observability.AttrDuration, duration),
	)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.RecordError(nodeErr)
		span.SetStatus(observability.StatusError, "node failed")
		span.End()
	}
}

// observeIterationStart opens a span for one group iteration.
func (run *Run) observeIterationStart(ctx context.Context, groupID string, index, total int) (context.Context, observability.Span) {
	if run.provider == nil {
		return ctx, nil
	}
	ctx, span := run.provider.StartSpan(ctx, observability.SpanFlowGroupIteration,
		observability.String(observability.AttrFlowGroupID, groupID),
		observability.Int(observability.AttrFlowIterationIndex, index),
		observability.Int(observability.AttrFlowIterationTotal, total),
	)
	return observability.ContextWithSpan(ctx, span), span
}

func endIterationSpan(span observability.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "iteration failed")
	} else {
		span.SetStatus(observability.StatusOK, "iteration completed")
	}
	span.End()
}
