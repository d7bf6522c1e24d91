package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They use semantic conventions where applicable and ensure consistent attribute
// naming across the codebase.
//
// # Attribute Keys
//
// Standard attribute keys follow OpenTelemetry semantic conventions:
//   - http.*: HTTP-related attributes
//   - db.*: Database-related attributes
//
// Custom attribute keys use the "europa.*" namespace:
//   - europa.run.*: Export run identity and outcome
//   - europa.query.*: Search query shape
//   - europa.batch.*: Per-batch fetch details
//   - europa.entries.*: Entry counts

// Common attribute keys used throughout the system
const (
	// Run attributes
	AttrRunID    = "europa.run.id"
	AttrRunState = "europa.run.state"
	AttrFormat   = "europa.run.format"

	// Query attributes
	AttrQueryOwner = "europa.query.owner"
	AttrUser       = "europa.user"

	// Request attributes
	AttrRequestID = "europa.request_id"

	// Batch attributes
	AttrBatchOrdinal = "europa.batch.ordinal"
	AttrBatchSize    = "europa.batch.size"

	// Entry count attributes
	AttrEntriesExported  = "europa.entries.exported"
	AttrEntriesAvailable = "europa.entries.available"
	AttrTruncated        = "europa.run.truncated"

	// Artifact attributes
	AttrArtifactPath = "europa.artifact.path"

	// Error attributes
	AttrErrorType    = "europa.error.type"
	AttrErrorMessage = "error.message"

	// Performance attributes
	AttrDuration   = "europa.duration_ms"
	AttrRetryCount = "europa.retry_count"
)

// SetRunAttributes sets run identity attributes on a span.
//
// Example:
//
//	SetRunAttributes(span, "1d9f...", "csv")
func SetRunAttributes(span trace.Span, runID, format string) {
	span.SetAttributes(
		attribute.String(AttrRunID, runID),
		attribute.String(AttrFormat, format),
	)
}

// SetRunOutcome records how a run ended: its terminal state, the entry
// counts, and whether the artifact was truncated at the entry cap.
//
// Example:
//
//	SetRunOutcome(span, "succeeded", 200, 250, true)
func SetRunOutcome(span trace.Span, state string, exported, available int64, truncated bool) {
	span.SetAttributes(
		attribute.String(AttrRunState, state),
		attribute.Int64(AttrEntriesExported, exported),
		attribute.Int64(AttrEntriesAvailable, available),
		attribute.Bool(AttrTruncated, truncated),
	)
}

// SetQueryAttributes sets query shape attributes on a span.
//
// Example:
//
//	SetQueryAttributes(span, "visible", "alice")
func SetQueryAttributes(span trace.Span, owner, user string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrQueryOwner, owner),
	}
	if user != "" {
		attrs = append(attrs, attribute.String(AttrUser, user))
	}
	span.SetAttributes(attrs...)
}

// SetRequestAttributes sets HTTP request attributes on a span.
//
// Example:
//
//	SetRequestAttributes(span, "req-123")
func SetRequestAttributes(span trace.Span, requestID string) {
	if requestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, requestID))
	}
}

// SetArtifactAttribute records the committed artifact location.
//
// Example:
//
//	SetArtifactAttribute(span, "/var/lib/europa/exports/run.csv")
func SetArtifactAttribute(span trace.Span, path string) {
	if path != "" {
		span.SetAttributes(attribute.String(AttrArtifactPath, path))
	}
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "search_timeout")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	// Record error and set status
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AddBatchEvent adds a per-batch event to the run span.
//
// Example:
//
//	AddBatchEvent(span, 3, 100)
func AddBatchEvent(span trace.Span, ordinal, size int) {
	span.AddEvent("batch_written", trace.WithAttributes(
		attribute.Int(AttrBatchOrdinal, ordinal),
		attribute.Int(AttrBatchSize, size),
	))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "artifact_committed",
//	    attribute.String("path", location),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
// This is a convenience wrapper around AddEvent for errors.
//
// Example:
//
//	RecordException(span, err)
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithRun adds run identity attributes.
func (ab *AttributeBuilder) WithRun(runID, format string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrRunID, runID),
		attribute.String(AttrFormat, format),
	)
	return ab
}

// WithQuery adds query shape attributes.
func (ab *AttributeBuilder) WithQuery(owner, user string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrQueryOwner, owner))
	if user != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrUser, user))
	}
	return ab
}

// WithCounts adds entry count attributes.
func (ab *AttributeBuilder) WithCounts(exported, available int64) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Int64(AttrEntriesExported, exported),
		attribute.Int64(AttrEntriesAvailable, available),
	)
	return ab
}

// WithArtifact adds the artifact location attribute.
func (ab *AttributeBuilder) WithArtifact(path string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrArtifactPath, path))
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		// Fall back to string representation
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
