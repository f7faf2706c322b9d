package promobs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leofalp/aigoflow/providers/observability"
)

// DefaultLabels maps the engine's metric names to the attribute keys exported
// as labels.
var DefaultLabels = map[string][]string{
	observability.MetricNodeCount:      {observability.AttrFlowNodeType, observability.AttrStatus},
	observability.MetricNodeDuration:   {observability.AttrFlowNodeType},
	observability.MetricRunDuration:    {observability.AttrStatus},
	observability.MetricChainFlowCount: {observability.AttrStatus},
}

// Observer implements observability.Provider on top of a Prometheus registry.
type Observer struct {
	delegate observability.Provider
	registry *prometheus.Registry
	labels   map[string][]string
	buckets  []float64

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

// Option configures an Observer.
type Option func(*Observer)

// WithRegistry uses registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *Observer) {
		o.registry = registry
	}
}

// WithLabels declares the attribute keys exported as labels for metric.
func WithLabels(metric string, attributeKeys ...string) Option {
	return func(o *Observer) {
		o.labels[metric] = attributeKeys
	}
}

// WithBuckets sets the histogram buckets (seconds).
func WithBuckets(buckets []float64) Option {
	return func(o *Observer) {
		o.buckets = buckets
	}
}

// New creates an Observer. delegate receives spans and log records and may be nil.
func New(delegate observability.Provider, opts ...Option) *Observer {
	observer := &Observer{
		delegate:   delegate,
		registry:   prometheus.NewRegistry(),
		labels:     make(map[string][]string, len(DefaultLabels)),
		buckets:    prometheus.DefBuckets,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for metric, keys := range DefaultLabels {
		observer.labels[metric] = keys
	}
	for _, opt := range opts {
		opt(observer)
	}
	return observer
}

// Ensure Observer implements observability.Provider
var _ observability.Provider = (*Observer)(nil)

// Registry returns the underlying registry.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}

// --- TRACING ---

// StartSpan delegates to the wrapped provider, or returns a no-op span.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	if o.delegate != nil {
		return o.delegate.StartSpan(ctx, name, attrs...)
	}
	span := noopSpan{}
	return observability.ContextWithSpan(ctx, span), span
}

type noopSpan struct{}

func (noopSpan) End()                                        {}
func (noopSpan) SetAttributes(...observability.Attribute)    {}
func (noopSpan) SetStatus(observability.StatusCode, string)  {}
func (noopSpan) RecordError(error)                           {}
func (noopSpan) AddEvent(string, ...observability.Attribute) {}

// --- METRICS ---

// Counter returns a counter exported as <name>_total with "." replaced by "_".
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.counters[name]; ok {
		return existing
	}
	keys := o.labels[name]
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName(name) + "_total",
		Help: fmt.Sprintf("Counter %s", name),
	}, labelNames(keys))
	created := &counter{vec: vec, keys: keys}
	if err := o.registry.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			created.vec = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	o.counters[name] = created
	return created
}

// Histogram returns a histogram exported as <name>_seconds with "." replaced by "_".
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.histograms[name]; ok {
		return existing
	}
	keys := o.labels[name]
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName(name) + "_seconds",
		Help:    fmt.Sprintf("Histogram %s", name),
		Buckets: o.buckets,
	}, labelNames(keys))
	created := &histogram{vec: vec, keys: keys}
	if err := o.registry.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			created.vec = already.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	o.histograms[name] = created
	return created
}

type counter struct {
	vec  *prometheus.CounterVec
	keys []string
}

// Add increments the counter. Negative values are ignored.
func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.keys, attrs)...).Add(float64(value))
}

type histogram struct {
	vec  *prometheus.HistogramVec
	keys []string
}

// Record observes value.
func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.vec.WithLabelValues(labelValues(h.keys, attrs)...).Observe(value)
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelNames(keys []string) []string {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = metricName(key)
	}
	return names
}

func labelValues(keys []string, attrs []observability.Attribute) []string {
	values := make([]string, len(keys))
	for i, key := range keys {
		if value, ok := observability.Lookup(attrs, key); ok {
			values[i] = fmt.Sprint(value)
		}
	}
	return values
}

// --- LOGGING ---

// Trace delegates to the wrapped provider.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Trace(ctx, msg, attrs...)
	}
}

// Debug delegates to the wrapped provider.
func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Debug(ctx, msg, attrs...)
	}
}

// Info delegates to the wrapped provider.
func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Info(ctx, msg, attrs...)
	}
}

// Warn delegates to the wrapped provider.
func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Warn(ctx, msg, attrs...)
	}
}

// Error delegates to the wrapped provider.
func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Error(ctx, msg, attrs...)
	}
}
