package tracing

import (
	"context"
	"testing"

	"mercator-hq/europa/pkg/config"

	"go.opentelemetry.io/otel/attribute"
)

func benchTracer(b *testing.B, sampler string) *Tracer {
	b.Helper()
	tracer, err := New(&config.TracingConfig{
		Enabled:     true,
		Exporter:    "none",
		Sampler:     sampler,
		ServiceName: "europa-bench",
	})
	if err != nil {
		b.Fatalf("New() error: %v", err)
	}
	b.Cleanup(func() { tracer.Shutdown(context.Background()) })
	return tracer
}

func BenchmarkStartEnd(b *testing.B) {
	tracer := benchTracer(b, "always")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "export.run")
		span.End()
	}
}

func BenchmarkStartEndUnsampled(b *testing.B) {
	tracer := benchTracer(b, "never")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "export.run")
		span.End()
	}
}

func BenchmarkStartEndDisabled(b *testing.B) {
	tracer, err := New(&config.TracingConfig{
		Enabled:     false,
		ServiceName: "europa-bench",
	})
	if err != nil {
		b.Fatalf("New() error: %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "export.run")
		span.End()
	}
}

func BenchmarkNestedSpans(b *testing.B) {
	tracer := benchTracer(b, "always")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runCtx, runSpan := tracer.Start(ctx, "export.run")
		_, batchSpan := tracer.Start(runCtx, "search.fetch")
		batchSpan.End()
		runSpan.End()
	}
}

func BenchmarkSetRunAttributes(b *testing.B) {
	tracer := benchTracer(b, "always")
	_, span := tracer.Start(context.Background(), "export.run")
	defer span.End()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SetRunAttributes(span, "run-bench", "parquet")
	}
}

func BenchmarkAddBatchEvent(b *testing.B) {
	tracer := benchTracer(b, "always")
	_, span := tracer.Start(context.Background(), "export.run")
	defer span.End()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AddBatchEvent(span, i, 100)
	}
}

func BenchmarkAttributeBuilder(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewAttributeBuilder().
			WithRun("run-bench", "csv").
			WithQuery("visible", "alice").
			WithCounts(200, 250).
			WithCustom("batch", i).
			Build()
	}
}

func BenchmarkTraceIDExtraction(b *testing.B) {
	tracer := benchTracer(b, "always")
	ctx, span := tracer.Start(context.Background(), "export.run")
	defer span.End()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = TraceID(ctx)
	}
}

func BenchmarkSpanWithAttributes(b *testing.B) {
	tracer := benchTracer(b, "always")
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, "run-bench"),
		attribute.String(AttrFormat, "csv"),
		attribute.Int64(AttrEntriesExported, 1000),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "export.run")
		span.SetAttributes(attrs...)
		span.End()
	}
}
