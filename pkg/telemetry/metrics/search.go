package metrics

import (
	"mercator-hq/europa/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics tracks search backend health and failure modes.
//
// Metrics:
//   - europa_export_search_retries_total: Retried batch fetches
//   - europa_export_search_errors_total: Backend errors by classification
//   - europa_export_search_backend_healthy: Backend health gauge (1/0)
type SearchMetrics struct {
	retriesTotal prometheus.Counter
	errorsTotal  *prometheus.CounterVec
	healthy      prometheus.Gauge
}

// NewSearchMetrics creates and registers search metrics with the provided registry.
func NewSearchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SearchMetrics {
	sm := &SearchMetrics{
		retriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "search_retries_total",
				Help:      "Total number of retried search batch fetches",
			},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "search_errors_total",
				Help:      "Total number of search backend errors by type",
			},
			[]string{"type"},
		),

		healthy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "search_backend_healthy",
				Help:      "Search backend health status (1=healthy, 0=unhealthy)",
			},
		),
	}

	registry.MustRegister(
		sm.retriesTotal,
		sm.errorsTotal,
		sm.healthy,
	)

	return sm
}

// RecordRetry records one retried batch fetch.
func (sm *SearchMetrics) RecordRetry() {
	sm.retriesTotal.Inc()
}

// RecordError records a backend error by classification.
func (sm *SearchMetrics) RecordError(errorType string) {
	sm.errorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateHealth sets the backend health gauge.
func (sm *SearchMetrics) UpdateHealth(healthy bool) {
	if healthy {
		sm.healthy.Set(1)
	} else {
		sm.healthy.Set(0)
	}
}
