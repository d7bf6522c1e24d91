// Package tracing provides distributed tracing for export runs using
// OpenTelemetry.
//
// The package wraps the OpenTelemetry SDK behind a small Tracer type that
// is configured from config.TracingConfig: exporter selection (OTLP gRPC
// or none), sampling strategy, and service identity. When tracing is
// disabled a noop tracer is returned so instrumented code paths carry no
// measurable overhead.
//
// # Span Topology
//
// An export run produces one root span covering the whole run, with one
// child span per search batch fetch:
//
//	export.run
//	├── search.fetch (batch 0)
//	├── search.fetch (batch 1)
//	├── ...
//	└── artifact.commit
//
// Batch completion is additionally recorded as "batch_written" events on
// the run span so a collapsed trace still shows per-batch progress.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "export.run")
//	defer span.End()
//
//	tracing.SetRunAttributes(span, run.ID, string(run.Request.Format))
//	tracing.SetRunOutcome(span, "succeeded", exported, available, truncated)
//
// # Attributes
//
// Custom attributes live under the "europa.*" namespace (run identity,
// query shape, batch ordinals, entry counts, artifact location). The
// AttributeBuilder offers a fluent way to assemble attribute sets for
// span creation.
//
// # Propagation
//
// W3C Trace Context and Baggage propagation are installed globally, and
// the propagation helpers in this package inject/extract span context
// across HTTP boundaries for callers that trigger exports remotely.
package tracing
