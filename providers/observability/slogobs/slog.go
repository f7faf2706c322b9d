package slogobs

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leofalp/aigoflow/providers/observability"
)

// scopeKeys identify where a record was produced. They are lifted out of the
// flat attribute list, grouped by their first segment ("flow", "chain") and
// inherited by every record emitted under the span that declared them, so all
// lines of one run share the same flow.execution.id.
var scopeKeys = map[string]bool{
	observability.AttrFlowExecutionID:    true,
	observability.AttrFlowNodeID:         true,
	observability.AttrFlowNodeType:       true,
	observability.AttrFlowGroupID:        true,
	observability.AttrFlowIterationIndex: true,
	observability.AttrChainID:            true,
	observability.AttrChainFlowID:        true,
}

// Observer implements observability.Provider on top of a slog.Logger. Spans
// become scoped loggers, metrics are tallied in memory and echoed at DEBUG.
type Observer struct {
	logger *slog.Logger
	meter  *meter
}

// New creates a new slog-based observer with functional options.
// If no options are provided, it uses environment variables for configuration
// (AIGOFLOW_LOG_FORMAT and AIGOFLOW_LOG_LEVEL), defaulting to text format and
// INFO level on stderr.
//
// Example usage:
//
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithLevel(slog.LevelDebug),
//	)
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(cfg.handler())
	}

	return &Observer{
		logger: logger,
		meter:  &meter{counters: make(map[string]int64), histograms: make(map[string]Summary)},
	}
}

// Logger returns the underlying slog.Logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

var _ observability.Provider = (*Observer)(nil)

// scope is the ordered set of scope attributes in effect for a span.
type scope []observability.Attribute

// with returns a copy of s updated with the scope keys found in attrs, plus
// the attributes that are not scope keys.
func (s scope) with(attrs []observability.Attribute) (scope, []observability.Attribute) {
	merged := append(scope(nil), s...)
	var rest []observability.Attribute
	for _, attr := range attrs {
		if !scopeKeys[attr.Key] {
			rest = append(rest, attr)
			continue
		}
		replaced := false
		for i := range merged {
			if merged[i].Key == attr.Key {
				merged[i].Value = attr.Value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, attr)
		}
	}
	return merged, rest
}

// groups renders the scope as one slog group per leading key segment.
func (s scope) groups() []slog.Attr {
	var order []string
	members := make(map[string][]any)
	for _, attr := range s {
		group, key, found := strings.Cut(attr.Key, ".")
		if !found {
			group, key = "", attr.Key
		}
		if _, seen := members[group]; !seen {
			order = append(order, group)
		}
		members[group] = append(members[group], slog.Any(key, attr.Value))
	}

	out := make([]slog.Attr, 0, len(order))
	for _, group := range order {
		if group == "" {
			for _, member := range members[group] {
				out = append(out, member.(slog.Attr))
			}
			continue
		}
		out = append(out, slog.Group(group, members[group]...))
	}
	return out
}

func scopeFromContext(ctx context.Context) scope {
	if current, ok := observability.SpanFromContext(ctx).(*span); ok {
		return current.scope
	}
	return nil
}

// emit writes one record carrying the context scope merged with attrs.
func (o *Observer) emit(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute, extra ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !o.logger.Enabled(ctx, level) {
		return
	}
	merged, rest := scopeFromContext(ctx).with(attrs)
	record := merged.groups()
	record = append(record, extra...)
	for _, attr := range rest {
		record = append(record, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, record...)
}

// --- TRACING ---

// StartSpan opens a span whose scope attributes (execution, node, chain ids)
// extend those of the span already in ctx. The start is logged at DEBUG.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	merged, rest := scopeFromContext(ctx).with(attrs)
	s := &span{
		observer: o,
		name:     name,
		start:    time.Now(),
		scope:    merged,
		attrs:    rest,
	}
	ctx = observability.ContextWithSpan(ctx, s)
	o.emit(ctx, slog.LevelDebug, "span started", rest, slog.String("span", name))
	return ctx, s
}

type span struct {
	observer *Observer
	name     string
	start    time.Time
	scope    scope

	mu          sync.Mutex
	attrs       []observability.Attribute
	status      string
	description string
	err         error
}

func (s *span) context() context.Context {
	return observability.ContextWithSpan(context.Background(), s)
}

// End logs the span duration and final status. Failed spans end at WARN so
// they survive an INFO threshold.
func (s *span) End() {
	s.mu.Lock()
	attrs := append([]observability.Attribute(nil), s.attrs...)
	status, description, err := s.status, s.description, s.err
	s.mu.Unlock()

	level := slog.LevelDebug
	extra := []slog.Attr{
		slog.String("span", s.name),
		slog.Duration("duration", time.Since(s.start)),
	}
	if status != "" {
		extra = append(extra, slog.String(observability.AttrStatus, status))
	}
	if description != "" {
		extra = append(extra, slog.String(observability.AttrStatusDescription, description))
	}
	if err != nil {
		level = slog.LevelWarn
		extra = append(extra, slog.String(observability.AttrError, err.Error()))
	}
	s.observer.emit(s.context(), level, "span ended", attrs, extra...)
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch code {
	case observability.StatusOK:
		s.status = "ok"
	case observability.StatusError:
		s.status = "error"
	default:
		s.status = "unset"
	}
	s.description = description
}

// RecordError logs err at ERROR immediately and keeps it for End.
func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.observer.emit(s.context(), slog.LevelError, "span error", nil,
		slog.String("span", s.name),
		slog.String(observability.AttrError, err.Error()),
	)
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	s.observer.emit(s.context(), slog.LevelDebug, name, attrs, slog.String("span", s.name))
}

// --- METRICS ---

// Summary aggregates the observations of one histogram.
type Summary struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

type meter struct {
	mu         sync.Mutex
	counters   map[string]int64
	histograms map[string]Summary
}

func (m *meter) add(name string, delta int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
	return m.counters[name]
}

func (m *meter) record(name string, value float64) Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, seen := m.histograms[name]
	if !seen || value < summary.Min {
		summary.Min = value
	}
	if !seen || value > summary.Max {
		summary.Max = value
	}
	summary.Count++
	summary.Sum += value
	m.histograms[name] = summary
	return summary
}

type counter struct {
	observer *Observer
	name     string
}

func (c counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	total := c.observer.meter.add(c.name, value)
	c.observer.emit(ctx, slog.LevelDebug, "counter", attrs,
		slog.String("metric", c.name),
		slog.Int64("delta", value),
		slog.Int64("total", total),
	)
}

type histogram struct {
	observer *Observer
	name     string
}

func (h histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	summary := h.observer.meter.record(h.name, value)
	h.observer.emit(ctx, slog.LevelDebug, "histogram", attrs,
		slog.String("metric", h.name),
		slog.Float64("value", value),
		slog.Int64("count", summary.Count),
	)
}

// Counter returns a handle on the named counter. Handles for the same name
// share one total.
func (o *Observer) Counter(name string) observability.Counter {
	return counter{observer: o, name: name}
}

// Histogram returns a handle on the named histogram.
func (o *Observer) Histogram(name string) observability.Histogram {
	return histogram{observer: o, name: name}
}

// CounterValue returns the total of the named counter across all labels.
func (o *Observer) CounterValue(name string) int64 {
	o.meter.mu.Lock()
	defer o.meter.mu.Unlock()
	return o.meter.counters[name]
}

// HistogramSummary returns the aggregate of the named histogram.
func (o *Observer) HistogramSummary(name string) (Summary, bool) {
	o.meter.mu.Lock()
	defer o.meter.mu.Unlock()
	summary, ok := o.meter.histograms[name]
	return summary, ok
}

// --- LOGGING ---

// Trace logs below DEBUG; it only shows when the level is set to TRACE.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.emit(ctx, LevelTrace, msg, attrs)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.emit(ctx, slog.LevelDebug, msg, attrs)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.emit(ctx, slog.LevelInfo, msg, attrs)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.emit(ctx, slog.LevelWarn, msg, attrs)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.emit(ctx, slog.LevelError, msg, attrs)
}
