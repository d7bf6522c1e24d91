// Package middleware provides the HTTP middleware chain for the export
// trigger API.
//
// Middleware, outermost first:
//
//   - RecoveryMiddleware: catches handler panics, logs them with stack
//     traces, and returns a 500 in the JSON error envelope
//   - LoggingMiddleware: structured request/response logging with latency
//   - RequestIDMiddleware: assigns or propagates X-Request-ID
//   - MetricsMiddleware: request counts, latency, and in-flight gauge
//   - CORSMiddleware: cross-origin headers and preflight handling
//   - TimeoutMiddleware: per-request deadline; background export runs do
//     not inherit it
//
// Each middleware follows the functional wrapping pattern:
//
//	handler = middleware.RecoveryMiddleware(handler)
//	handler = middleware.TimeoutMiddleware(30 * time.Second)(handler)
package middleware
