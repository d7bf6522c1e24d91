package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/europa/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Europa.
// It manages metric registration and provides a unified interface for
// recording metrics across all components.
//
// The collector is designed for minimal overhead on the export hot path:
//   - Pre-allocated metric instances
//   - Cardinality limits to prevent memory issues
//   - Histogram buckets sized for batch export workloads
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Export run metrics
	runMetrics *RunMetrics

	// HTTP API metrics
	httpMetrics *HTTPMetrics

	// Search backend metrics
	searchMetrics *SearchMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "europa",
//		Subsystem: "export",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "europa"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "export"
	}
	if len(cfg.RunDurationBuckets) == 0 {
		cfg.RunDurationBuckets = config.DefaultRunDurationBuckets
	}
	if len(cfg.BatchFetchDurationBuckets) == 0 {
		cfg.BatchFetchDurationBuckets = config.DefaultBatchFetchDurationBuckets
	}
	if len(cfg.EntryCountBuckets) == 0 {
		cfg.EntryCountBuckets = config.DefaultEntryCountBuckets
	}
	if len(cfg.HTTPDurationBuckets) == 0 {
		cfg.HTTPDurationBuckets = config.DefaultHTTPDurationBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	c.runMetrics = NewRunMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)
	c.searchMetrics = NewSearchMetrics(cfg, registry)

	return c
}

// RunMetrics returns the export run metrics for wiring into the export
// coordinator.
func (c *Collector) RunMetrics() *RunMetrics {
	return c.runMetrics
}

// RecordRun records metrics for a run that reached a terminal state.
//
// Parameters:
//   - format: Artifact format ("csv", "parquet", "json")
//   - state: Terminal state ("succeeded", "failed", "cancelled")
//   - entries: Number of entries written to the artifact
//   - duration: Time from run start to terminal state
func (c *Collector) RecordRun(format, state string, entries int64, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordRun(format, state, entries, duration)
}

// RecordBatchFetch records one completed search batch fetch.
func (c *Collector) RecordBatchFetch(duration time.Duration, entries int) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordBatchFetch(duration, entries)
}

// RecordHTTPRequest records metrics for a completed API request.
//
// Parameters:
//   - method: HTTP method ("GET", "POST", "DELETE")
//   - path: Route pattern, not the raw URL (e.g. "/v1/exports/{id}")
//   - status: HTTP status code
//   - duration: Total request duration
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	// Check cardinality limit; raw URLs with IDs would explode the
	// label space, so unrecognized paths collapse into "other".
	labelSet := fmt.Sprintf("http:%s:%s:%d", method, path, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		path = "other"
	}

	c.httpMetrics.RecordRequest(method, path, status, duration)
}

// RequestStarted marks an API request in flight.
func (c *Collector) RequestStarted() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RequestStarted()
}

// RequestFinished marks an API request as complete.
func (c *Collector) RequestFinished() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RequestFinished()
}

// RecordSearchRetry records one retry of a search batch fetch.
func (c *Collector) RecordSearchRetry() {
	if !c.config.Enabled {
		return
	}
	c.searchMetrics.RecordRetry()
}

// RecordSearchError records a search backend error.
//
// Parameters:
//   - errorType: Error classification (e.g. "unavailable", "timeout",
//     "invalid_query", "schema_drift")
func (c *Collector) RecordSearchError(errorType string) {
	if !c.config.Enabled {
		return
	}
	c.searchMetrics.RecordError(errorType)
}

// UpdateBackendHealth updates the health status of the search backend.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (c *Collector) UpdateBackendHealth(healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.searchMetrics.UpdateHealth(healthy)
}

// UpdateActiveRuns sets the number of currently executing export runs.
func (c *Collector) UpdateActiveRuns(n int) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.UpdateActiveRuns(n)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
