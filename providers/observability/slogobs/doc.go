// Package slogobs provides an observability.Provider implementation backed by
// Go's standard library log/slog package.
//
// Spans do not produce a separate trace: they scope the log stream. The ids a
// span declares (flow.execution.id, flow.node.id, chain.id, ...) are grouped
// under "flow" and "chain" and repeated on every record emitted under that
// span, so filtering on one execution id yields the whole run. Span boundaries
// and metric updates are logged at DEBUG; counters and histograms are also
// tallied in memory ([Observer.CounterValue], [Observer.HistogramSummary]).
//
// The main entry point is [New]; output format and log level can be tuned with
// [WithFormat], [WithLevel], [WithOutput] and [WithLogger], or through the
// AIGOFLOW_LOG_FORMAT and AIGOFLOW_LOG_LEVEL environment variables.
package slogobs
