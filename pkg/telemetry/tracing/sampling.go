package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler strategy names accepted in telemetry.tracing.sampler.
//
// Export runs are long and few compared to typical request traffic, so the
// default is "parent": a workflow engine that submits a run with a sampled
// traceparent gets the full run trace, and unsolicited root spans are
// sampled at the configured ratio.
const (
	// SamplerParent honors the caller's sampling decision and applies
	// the ratio only to root spans.
	SamplerParent = "parent"

	// SamplerAlways records every trace. Development and debugging.
	SamplerAlways = "always"

	// SamplerNever records nothing while keeping span plumbing alive.
	SamplerNever = "never"

	// SamplerRatio records the given fraction of traces by trace-ID hash,
	// ignoring any caller decision.
	SamplerRatio = "ratio"
)

// newSampler builds the SDK sampler for a strategy name.
//
// "always", "never", and "parent" wrap their base sampler in ParentBased so
// a run span started under a sampled submission stays sampled end to end.
// "ratio" deliberately does not: it pins the local sampling rate even when
// callers over-sample, which suits shared deployments where one chatty
// submitter must not flood the trace backend.
func newSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	if err := checkRatio(strategy, ratio); err != nil {
		return nil, err
	}

	switch strategy {
	case SamplerParent:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil
	case SamplerAlways:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case SamplerNever:
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case SamplerRatio:
		return sdktrace.TraceIDRatioBased(ratio), nil
	default:
		return nil, fmt.Errorf("unknown sampler strategy %q (valid: parent, always, never, ratio)", strategy)
	}
}

// checkRatio rejects out-of-range ratios for the strategies that use one.
func checkRatio(strategy string, ratio float64) error {
	if strategy != SamplerParent && strategy != SamplerRatio {
		return nil
	}
	if ratio < 0.0 || ratio > 1.0 {
		return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %g", ratio)
	}
	return nil
}
