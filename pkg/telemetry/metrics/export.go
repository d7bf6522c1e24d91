package metrics

import (
	"time"

	"mercator-hq/europa/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks metrics related to export run execution.
//
// Metrics:
//   - europa_export_runs_total: Completed run count by format and state
//   - europa_export_run_duration_seconds: Run duration histogram
//   - europa_export_entries_total: Total entries written to artifacts
//   - europa_export_batch_fetch_duration_seconds: Search batch fetch latency
//   - europa_export_batch_entries: Entries per fetched batch
type RunMetrics struct {
	// Completed run count by format and terminal state
	runsTotal *prometheus.CounterVec

	// Run duration histogram by format and terminal state
	runDuration *prometheus.HistogramVec

	// Entries written to artifacts
	entriesTotal *prometheus.CounterVec

	// Search batch fetch latency
	batchFetchDuration prometheus.Histogram

	// Entries per fetched batch
	batchEntries prometheus.Histogram

	// Currently executing runs
	activeRuns prometheus.Gauge
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of export runs by terminal state",
			},
			[]string{"format", "state"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of export runs in seconds",
				Buckets:   cfg.RunDurationBuckets,
			},
			[]string{"format", "state"},
		),

		entriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "entries_total",
				Help:      "Total number of entries written to export artifacts",
			},
			[]string{"format"},
		),

		batchFetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_fetch_duration_seconds",
				Help:      "Duration of search batch fetches in seconds",
				Buckets:   cfg.BatchFetchDurationBuckets,
			},
		),

		batchEntries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_entries",
				Help:      "Entries returned per search batch",
				Buckets:   cfg.EntryCountBuckets,
			},
		),

		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_runs",
				Help:      "Number of export runs currently executing",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		rm.runsTotal,
		rm.runDuration,
		rm.entriesTotal,
		rm.batchFetchDuration,
		rm.batchEntries,
		rm.activeRuns,
	)

	return rm
}

// RecordRun records metrics for a run that reached a terminal state.
//
// Parameters:
//   - format: Artifact format ("csv", "parquet", "json")
//   - state: Terminal state ("succeeded", "failed", "cancelled")
//   - entries: Number of entries written to the artifact
//   - duration: Time from run start to terminal state
func (rm *RunMetrics) RecordRun(format, state string, entries int64, duration time.Duration) {
	rm.runsTotal.WithLabelValues(format, state).Inc()
	rm.runDuration.WithLabelValues(format, state).Observe(duration.Seconds())

	if entries > 0 {
		rm.entriesTotal.WithLabelValues(format).Add(float64(entries))
	}
}

// RecordBatchFetch records one completed search batch fetch.
func (rm *RunMetrics) RecordBatchFetch(duration time.Duration, entries int) {
	rm.batchFetchDuration.Observe(duration.Seconds())
	rm.batchEntries.Observe(float64(entries))
}

// UpdateActiveRuns sets the number of currently executing runs.
func (rm *RunMetrics) UpdateActiveRuns(n int) {
	rm.activeRuns.Set(float64(n))
}
