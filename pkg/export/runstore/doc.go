// Package runstore persists export run records.
//
// Two implementations of export.RunStore are provided: a SQLite-backed
// store for the long-running server, and an in-memory store for one-shot
// command line invocations and tests. The SQLite store keeps the run's
// request as a JSON column and everything the list and retention paths
// query as plain columns.
package runstore
