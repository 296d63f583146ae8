// Package promobs records uigen metrics in Prometheus. It implements
// observability.Metrics only; pair it with a tracer and a logger through
// observability.Combine.
package promobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leofalp/uigen/providers/observability"
)

// DefaultBuckets suit run and attempt durations in seconds.
var DefaultBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// Metrics creates one Prometheus vector per metric name on first use. The
// label names of a vector are the attribute keys of its first observation;
// later observations fill missing labels with "" and drop unknown ones.
type Metrics struct {
	factory   promauto.Factory
	namespace string
	buckets   map[string][]float64

	mu         sync.Mutex
	counters   map[string]*vec[*prometheus.CounterVec]
	histograms map[string]*vec[*prometheus.HistogramVec]
}

type vec[T any] struct {
	labels []string
	v      T
}

var _ observability.Metrics = (*Metrics)(nil)

// Option configures Metrics.
type Option func(*Metrics)

// WithNamespace prefixes every metric name.
func WithNamespace(namespace string) Option {
	return func(m *Metrics) {
		m.namespace = sanitize(namespace)
	}
}

// WithBuckets sets the histogram buckets for one metric.
func WithBuckets(metric string, buckets []float64) Option {
	return func(m *Metrics) {
		m.buckets[metric] = buckets
	}
}

// New registers metrics with reg. A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, opts ...Option) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		factory:    promauto.With(reg),
		buckets:    make(map[string][]float64),
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Metrics) Counter(name string) observability.Counter {
	return &counter{metrics: m, name: name}
}

func (m *Metrics) Histogram(name string) observability.Histogram {
	return &histogram{metrics: m, name: name}
}

type counter struct {
	metrics *Metrics
	name    string
}

func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		return
	}
	v := c.metrics.counterVec(c.name, attrs)
	v.v.WithLabelValues(labelValues(v.labels, attrs)...).Add(float64(value))
}

type histogram struct {
	metrics *Metrics
	name    string
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	v := h.metrics.histogramVec(h.name, attrs)
	v.v.WithLabelValues(labelValues(v.labels, attrs)...).Observe(value)
}

func (m *Metrics) counterVec(name string, attrs []observability.Attribute) *vec[*prometheus.CounterVec] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.counters[name]; ok {
		return existing
	}

	metricName := sanitize(name)
	if !strings.HasSuffix(metricName, "_total") {
		metricName += "_total"
	}
	labels := labelNames(attrs)
	created := &vec[*prometheus.CounterVec]{
		labels: labels,
		v: m.factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      metricName,
			Help:      fmt.Sprintf("uigen counter %s", name),
		}, sanitizeAll(labels)),
	}
	m.counters[name] = created
	return created
}

func (m *Metrics) histogramVec(name string, attrs []observability.Attribute) *vec[*prometheus.HistogramVec] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.histograms[name]; ok {
		return existing
	}

	buckets, ok := m.buckets[name]
	if !ok {
		buckets = DefaultBuckets
	}
	labels := labelNames(attrs)
	created := &vec[*prometheus.HistogramVec]{
		labels: labels,
		v: m.factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      sanitize(name),
			Help:      fmt.Sprintf("uigen histogram %s", name),
			Buckets:   buckets,
		}, sanitizeAll(labels)),
	}
	m.histograms[name] = created
	return created
}

func labelNames(attrs []observability.Attribute) []string {
	names := make([]string, 0, len(attrs))
	seen := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		if seen[attr.Key] {
			continue
		}
		seen[attr.Key] = true
		names = append(names, attr.Key)
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, attrs []observability.Attribute) []string {
	values := make([]string, len(names))
	for i, name := range names {
		for _, attr := range attrs {
			if attr.Key == name {
				values[i] = fmt.Sprint(attr.Value)
				break
			}
		}
	}
	return values
}

// sanitize turns a dotted name into a valid Prometheus identifier.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func sanitizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = sanitize(name)
	}
	return out
}
