// Package docstore provides the search backends bundled with europa: a
// SQLite-backed document store for real deployments and an in-memory store
// for tests and examples.
//
// Both implement search.Backend with keyset pagination: documents are
// ordered by ID and the page cursor encodes the last ID served, so pages
// stay disjoint and stable while the corpus does not change underneath the
// run.
//
// # Owner Scopes
//
// Queries carry a visibility scope that maps onto the store's owner
// columns:
//
//   - public: documents filed under the public scope
//   - visible: public documents plus the requesting user's own
//   - shared: shared documents plus the requesting user's own
//   - user: the requesting user's documents only
//   - staging: the requesting user's staging documents
//   - all: no visibility constraint
//
// # SQLite
//
// The SQLite store keeps each document as a JSON blob beside its owner
// columns and matches field filters with json_extract. The database is
// opened in WAL mode with a busy timeout, and transient SQLite failures
// surface as search.UnavailableError so the paginator retries them.
package docstore
