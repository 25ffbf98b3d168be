package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PartnerMetrics exposes Prometheus metrics for partner API round trips.
// It implements partner.Recorder.
type PartnerMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPartnerMetrics creates the metrics on a dedicated registry
func NewPartnerMetrics(namespace string) *PartnerMetrics {
	registry := prometheus.NewRegistry()

	m := &PartnerMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "partner",
				Name:      "requests_total",
				Help:      "Total number of requests sent to the refinancing partner.",
			},
			[]string{"operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "partner",
				Name:      "request_duration_seconds",
				Help:      "Duration of requests sent to the refinancing partner in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// ObserveRequest records one partner round trip. Status 0 is reported as "error".
func (m *PartnerMetrics) ObserveRequest(operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(operation, label).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry returns the underlying registry
func (m *PartnerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry
func (m *PartnerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
