package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects HTTP-level request metrics on a private registry so the
// server does not pollute or collide with the default global registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the HTTP metrics set with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tftrader_http_requests_total",
			Help: "Total HTTP requests served, by path.",
		}, []string{"path"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tftrader_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// Registerer exposes the underlying registry so other components, such as
// the risk gate counters, can register alongside the HTTP metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(path string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(path).Inc()
	m.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
