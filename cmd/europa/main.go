// Europa is a batch export service for searchable document stores.
//
// It drains search queries into CSV, Parquet, or JSON artifacts,
// providing:
//   - Paged draining with per-batch timeouts and retry
//   - A global entry cap with truncation-as-success semantics
//   - Atomic artifact commits to a local destination
//   - Run lifecycle tracking with cancellation at batch boundaries
//   - Reusable export presets loaded from files or a git repository
//
// Usage:
//
//	# Start the export API server with default configuration
//	europa serve
//
//	# Start with custom configuration file
//	europa serve --config /path/to/config.yaml
//
//	# Run a one-shot export from the command line
//	europa export --owner public --format csv --include id,element
//
//	# Inspect recorded runs
//	europa runs list
//
//	# Show version information
//	europa version
//
// For complete documentation, see: https://github.com/mercator-hq/europa
package main

func main() {
	Execute()
}
