// Package encoding provides streaming tabular encoders for export artifacts.
//
// # Formats
//
// Three output formats are supported:
//
//   - CSV: RFC 4180, header row followed by one row per entry
//   - Parquet: columnar, snappy-compressed, schema inferred from the first batch
//   - JSON: a single array of objects, streamed element by element
//
// # Session Contract
//
// Encoding is a strict open, write, close sequence bound to one export run:
//
//	enc, _ := encoding.New(encoding.FormatCSV, encoding.Options{})
//	sess, _ := enc.Open(target, schema)
//	for _, batch := range batches {
//	    if err := sess.WriteBatch(batch); err != nil {
//	        // drift or destination failure, run fails
//	    }
//	}
//	err := sess.Close() // flushes and reports deferred write errors
//
// Sessions are single-use and not safe for concurrent writers. A session
// never buffers the full result set; each batch is flushed to the target
// before WriteBatch returns.
//
// # Schema Enforcement
//
// CSV and Parquet sessions hold the column schema fixed for the whole run.
// A batch whose projected field set deviates from the schema fails with
// dataset.SchemaDriftError. JSON sessions skip the check and write entries
// as they come, so heterogeneous result sets export cleanly to JSON.
package encoding
