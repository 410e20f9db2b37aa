// Package prometheus records observability hooks as Prometheus metrics.
//
//	m := prometheus.New()
//	m.Install()
//	http.Handle("/metrics", m.Handler())
package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stackreqs/pkg/observability"
)

// Metrics implements every hook interface in package observability.
type Metrics struct {
	registry *prometheus.Registry

	resolveTotal        *prometheus.CounterVec
	resolveDuration     prometheus.Histogram
	resolveComponents   prometheus.Histogram
	resolveRequirements prometheus.Histogram
	lookupTotal         *prometheus.CounterVec
	lookupDuration      *prometheus.HistogramVec
	cacheTotal          *prometheus.CounterVec
	cacheBytes          *prometheus.CounterVec
	httpTotal           *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New creates the metrics and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackreqs_resolve_total",
				Help: "Number of resolution runs by outcome.",
			},
			[]string{"outcome"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stackreqs_resolve_duration_seconds",
				Help:    "Time taken by a resolution run.",
				Buckets: prometheus.DefBuckets,
			},
		),
		resolveComponents: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stackreqs_resolve_components",
				Help:    "Number of components in a resolved load order.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		resolveRequirements: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stackreqs_resolve_requirements",
				Help:    "Number of requirements aggregated by a resolution run.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		lookupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackreqs_registry_lookup_total",
				Help: "Number of registry lookups by backend and outcome.",
			},
			[]string{"backend", "outcome"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackreqs_registry_lookup_duration_seconds",
				Help:    "Time taken by registry lookups.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackreqs_cache_events_total",
				Help: "Cache hits, misses and writes by key type.",
			},
			[]string{"key_type", "event"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackreqs_cache_written_bytes_total",
				Help: "Bytes written to the cache by key type.",
			},
			[]string{"key_type"},
		),
		httpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackreqs_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackreqs_http_request_duration_seconds",
				Help:    "Time taken to serve HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.resolveTotal,
		m.resolveDuration,
		m.resolveComponents,
		m.resolveRequirements,
		m.lookupTotal,
		m.lookupDuration,
		m.cacheTotal,
		m.cacheBytes,
		m.httpTotal,
		m.httpDuration,
	)
	return m
}

// Install registers m as the global hooks for every category.
func (m *Metrics) Install() {
	observability.SetResolveHooks(m)
	observability.SetRegistryHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnResolveStart(context.Context, int) {}

func (m *Metrics) OnResolveComplete(_ context.Context, components, requirements int, d time.Duration, err error) {
	m.resolveTotal.WithLabelValues(outcome(err)).Inc()
	m.resolveDuration.Observe(d.Seconds())
	if err == nil {
		m.resolveComponents.Observe(float64(components))
		m.resolveRequirements.Observe(float64(requirements))
	}
}

func (m *Metrics) OnLookup(_ context.Context, backend, _ string, d time.Duration, err error) {
	m.lookupTotal.WithLabelValues(backend, outcome(err)).Inc()
	m.lookupDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheTotal.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.ResolveHooks  = (*Metrics)(nil)
	_ observability.RegistryHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
