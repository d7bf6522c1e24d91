package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceIDHeader is set on API responses when the request carried (or
// started) a valid trace, so a caller polling GET /v1/exports/{id} can
// correlate the run with its trace in the backend.
const TraceIDHeader = "X-Trace-ID"

// Propagator returns the process-wide text map propagator. New installs a
// composite W3C Trace Context + Baggage propagator when tracing is enabled.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Extract reads trace context from incoming request headers. An export
// submitted by a workflow engine arrives with a traceparent header; the
// returned context parents the run span on the caller's trace. Without
// trace headers the original context comes back unchanged.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the context's trace context into outgoing request headers,
// for calls Europa makes on behalf of a run (a remote search backend, a
// webhook on completion).
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// HTTPMiddleware extracts trace context from each incoming request and
// hands the enriched context to the next handler, so submission handlers
// start their spans under the caller's trace. When the extracted context
// is valid, the trace ID is echoed in the TraceIDHeader response header.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := Extract(r.Context(), r.Header)

		if sc := SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			w.Header().Set(TraceIDHeader, sc.TraceID().String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
