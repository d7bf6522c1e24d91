// Package dataset provides the core data model for export runs: entries,
// field projections, and the column schema captured from projected batches.
//
// # Entries
//
// An Entry is a single search hit, a flat map of field names to values as
// returned by the search backend. Values may be scalars, nested mappings, or
// arrays; the encoders decide how non-scalar values are rendered per format.
//
// # Projections
//
// A Projection narrows entries to the fields a run should export. It carries
// either an include list or an exclude list, never both:
//
//	// Keep only id and temperature, in that order
//	p := dataset.Projection{Include: []string{"id", "temperature"}}
//
//	// Keep everything except raw_blob
//	p := dataset.Projection{Exclude: []string{"raw_blob"}}
//
// Projections are pure: Apply never mutates the source entry and is safe for
// concurrent use.
//
// # Schemas
//
// Tabular formats need a fixed column set. DeriveSchema captures it from the
// first non-empty projected batch: the include list verbatim when one was
// given, otherwise the lexically sorted union of the batch's field names.
// Conforms checks later batches against the captured schema; a mismatch is
// reported as a SchemaDriftError.
package dataset
