// Package export coordinates batch export runs: draining a search query
// page by page, projecting each batch, streaming it through a tabular or
// JSON encoder, and committing the finished artifact to a destination.
//
// # Run Lifecycle
//
// A run moves through a monotonic state machine:
//
//	pending -> running -> succeeded | failed | cancelled
//
// Terminal states are frozen. Cancellation is observed between batches, so
// a cancel request never truncates a batch mid-write; the partial artifact
// is discarded and the run records how many entries were exported before
// the cancel point.
//
// # Limits
//
// Every run is bounded by a per-batch search timeout and a maximum entry
// count. A run that hits the entry limit still succeeds: the artifact
// holds exactly the limit and the run is marked truncated.
//
// # Error Taxonomy
//
// Failures carry a stable machine-readable kind (search_unavailable,
// search_timeout, invalid_query, invalid_projection, invalid_format,
// schema_drift, destination_write) derived from the typed errors of the
// collaborating packages. Transient search outages are retried inside the
// paginator; everything else fails the run.
package export
