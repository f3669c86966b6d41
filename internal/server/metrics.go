package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydrokit/negflo/pkg/observability"
)

// Metrics exports smoothing and cache activity to Prometheus. It implements
// [observability.SmoothHooks] and [observability.CacheHooks].
type Metrics struct {
	registry *prometheus.Registry

	passes       *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	unresolved   *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
	requests     *prometheus.CounterVec
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "negflo_passes_total",
				Help: "Smoothing passes by mode and result",
			},
			[]string{"mode", "result"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "negflo_pass_duration_seconds",
				Help:    "Duration of a smoothing pass over every column",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"mode"},
		),
		unresolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "negflo_unresolved_columns_total",
				Help: "Columns left with negative volume after a pass",
			},
			[]string{"mode"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "negflo_cache_events_total",
				Help: "Artifact cache hits, misses, and writes",
			},
			[]string{"event"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "negflo_http_requests_total",
				Help: "API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
	m.registry.MustRegister(m.passes, m.passDuration, m.unresolved, m.cacheEvents, m.requests)
	return m
}

// Install registers m as the process-wide smoothing and cache hooks.
func (m *Metrics) Install() {
	observability.SetSmoothHooks(m)
	observability.SetCacheHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OnPassStart(context.Context, string, int) {}

func (m *Metrics) OnPassComplete(_ context.Context, mode string, _ int, unresolved int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.passes.WithLabelValues(mode, result).Inc()
	m.passDuration.WithLabelValues(mode).Observe(d.Seconds())
	if unresolved > 0 {
		m.unresolved.WithLabelValues(mode).Add(float64(unresolved))
	}
}

func (m *Metrics) OnCacheHit(context.Context, string) {
	m.cacheEvents.WithLabelValues("hit").Inc()
}

func (m *Metrics) OnCacheMiss(context.Context, string) {
	m.cacheEvents.WithLabelValues("miss").Inc()
}

func (m *Metrics) OnCacheSet(context.Context, string, int) {
	m.cacheEvents.WithLabelValues("set").Inc()
}

var (
	_ observability.SmoothHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
)
