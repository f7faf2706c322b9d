// Package promobs provides an observability.Provider that records metrics in
// a Prometheus registry while delegating tracing and logging to another
// provider (typically slogobs).
//
// Attribute keys listed for a metric become Prometheus labels, so
// aigoflow.node.count is exported as aigoflow_node_count_total{flow_node_type,status}.
// [Observer.Handler] exposes the registry for scraping.
package promobs
