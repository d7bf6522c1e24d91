// Package server provides the HTTP API for triggering and tracking
// export runs.
//
// # Endpoints
//
//   - POST /v1/exports: submit an export request; returns 202 with the
//     pending run record. The run executes in the background and outlives
//     the submitting request. The body may name a preset instead of an
//     inline request: {"preset": "quartz-survey"}.
//   - GET /v1/exports: list runs, newest first; ?state= and ?limit=
//     narrow the result.
//   - GET /v1/exports/{id}: fetch one run record, including progress
//     counts and, once succeeded, the committed artifact location.
//   - DELETE /v1/exports/{id}: request cancellation; 202 when accepted,
//     409 when the run already finished.
//   - GET /v1/presets: list the preset library, when one is attached.
//   - /health, /ready, /version: probes and build information.
//   - /metrics: Prometheus scrape endpoint when metrics are enabled.
//
// # Errors
//
// Failures use a JSON envelope with a stable machine-readable kind:
//
//	{"error": {"kind": "invalid_query", "message": "unknown owner scope x"}}
//
// Validation failures map to 400 with the run error taxonomy kinds,
// unknown runs to 404, and cancels against finished runs to 409.
//
// # Middleware
//
// Requests flow through recovery, logging, request ID, metrics, CORS,
// and timeout middleware, in that order. The request timeout never
// bounds export runs; those belong to the export manager.
package server
