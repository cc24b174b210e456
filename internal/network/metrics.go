package network

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics cuenta las llamadas del request builder.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registra los colectores en reg (nil -> no se registran).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "woo_network_requests_total",
			Help: "Outbound WooCommerce REST requests by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "woo_network_request_duration_seconds",
			Help:    "Outbound WooCommerce REST request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	if outcome != "cache_hit" {
		m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}
