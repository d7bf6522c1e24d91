// Package metrics provides Prometheus metrics for the export pipeline.
//
// The Collector owns a Prometheus registry and three metric groups:
//
//   - RunMetrics: export run outcomes, durations, entry counts, per-batch
//     fetch latency, and the active-run gauge
//   - HTTPMetrics: request counts, latency, and in-flight gauge for the
//     export trigger API
//   - SearchMetrics: search backend retries, error classifications, and
//     a health gauge
//
// All metrics live under the configured namespace/subsystem (default
// "europa_export"). Histogram buckets are sized for batch export
// workloads and can be overridden via config.MetricsConfig.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Wire run metrics into the export coordinator.
//	coord := export.NewCoordinator(export.CoordinatorConfig{
//	    Metrics: collector.RunMetrics(),
//	    ...
//	})
//
//	// Expose the scrape endpoint.
//	http.Handle("/metrics", collector.Handler())
//
// A CardinalityLimiter bounds the number of unique label sets recorded
// for HTTP paths; unrecognized paths collapse into "other" so raw URLs
// containing run IDs cannot blow up the label space.
package metrics
