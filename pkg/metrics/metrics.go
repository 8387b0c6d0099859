// Package metrics defines the Prometheus collectors for the matching
// service and exposes them over HTTP. All methods are safe on a nil
// *Metrics so callers that run without metrics need no guards.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "occumatch"

// Metrics holds every collector the service records to.
type Metrics struct {
	reg *prometheus.Registry

	Requests         *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	ExplainFallbacks *prometheus.CounterVec
	BatchSize        prometheus.Histogram
	BreakerState     *prometheus.GaugeVec
	CacheLookups     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates collectors registered on a fresh registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "match",
				Name:      "requests_total",
				Help:      "Match requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "match",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),

		ExplainFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "explain",
				Name:      "fallbacks_total",
				Help:      "Explanations replaced by the fallback text",
			},
			[]string{"provider"},
		),

		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "match",
				Name:      "batch_size",
				Help:      "Number of texts per batch request",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "circuit_breaker",
				Help:      "Circuit breaker status (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Result cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.StageDuration,
		m.ExplainFallbacks,
		m.BatchSize,
		m.BreakerState,
		m.CacheLookups,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Instrument wraps h with request counting and latency for route.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	if m == nil {
		return h
	}
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(
		m.HTTPDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.HTTPRequests.MustCurryWith(labels), h),
	)
}

// Request counts one finished request.
func (m *Metrics) Request(operation, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, outcome).Inc()
}

// ObserveStage records the time since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ExplainFallback counts a fallback explanation for provider.
func (m *Metrics) ExplainFallback(provider string) {
	if m == nil {
		return
	}
	m.ExplainFallbacks.WithLabelValues(provider).Inc()
}

// Batch records the size of a batch request.
func (m *Metrics) Batch(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

// Breaker sets the state gauge for the named breaker. State values follow
// resilience.State.
func (m *Metrics) Breaker(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
