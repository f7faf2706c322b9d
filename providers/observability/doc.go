// Package observability defines the core interfaces and semantic conventions
// used for tracing, metrics collection, and structured logging throughout the
// aigoflow engine.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. Callers propagate an active
// [Provider] and [Span] through a [context.Context] using [ContextWithObserver]
// and [ContextWithSpan]; they can be retrieved with [ObserverFromContext] and
// [SpanFromContext].
//
// The semconv.go file contains the attribute-key, span-name and metric-name
// constants used when recording observations, so the slog and Prometheus
// providers agree on naming.
package observability
