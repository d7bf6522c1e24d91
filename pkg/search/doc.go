// Package search defines the search collaborator contract and the cursor
// paginator that export runs drain entries through.
//
// # Backends
//
// A Backend answers one page at a time for a query, in a stable total order,
// with an opaque cursor linking consecutive pages:
//
//	page, err := backend.Search(ctx, query, "", 100)   // first page
//	page, err = backend.Search(ctx, query, page.NextCursor, 100)
//
// An empty NextCursor marks exhaustion. Pages are disjoint; a backend never
// repeats or drops entries between consecutive cursors as long as the
// underlying corpus is stable.
//
// Implementations live in the docstore subpackage (SQLite and in-memory).
//
// # Pagination
//
// The Paginator wraps a backend with the per-batch discipline export runs
// need: every fetch runs under the batch deadline, transient unavailability
// is retried with exponential backoff inside that deadline, and the error
// taxonomy separates what may be retried from what must fail the run:
//
//   - UnavailableError: transient backend failure, retried with backoff
//   - TimeoutError: batch deadline exceeded, fatal
//   - InvalidQueryError: malformed query, fatal before the first retry
//
// # Queries
//
// A Query carries an owner visibility scope (public, visible, shared, user,
// staging, all), exact-match field filters, and an optional free-text
// needle. Backends decide how each dimension is matched.
package search
