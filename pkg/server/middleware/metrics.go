package middleware

import (
	"net/http"
	"strings"
	"time"

	"mercator-hq/europa/pkg/telemetry/metrics"
)

// routePattern returns the mux pattern that matched the request, without
// the method prefix. Unmatched requests fall back to the raw path, which
// the collector's cardinality limiter collapses if it grows unbounded.
func routePattern(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return r.URL.Path
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

// MetricsMiddleware records request counts, latency, and the in-flight
// gauge on the metrics collector. The route pattern matched by the mux is
// used as the path label so run IDs never reach the label space.
//
// Example usage:
//
//	handler = MetricsMiddleware(collector)(handler)
func MetricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			collector.RequestStarted()
			defer collector.RequestFinished()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(r.Method, routePattern(r), rw.statusCode, time.Since(start))
		})
	}
}
