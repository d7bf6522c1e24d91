package tracing

import (
	"strings"
	"testing"
)

func TestNewSampler_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{"parent default ratio", SamplerParent, 0.1, false},
		{"parent full ratio", SamplerParent, 1.0, false},
		{"always", SamplerAlways, 0.0, false},
		{"never", SamplerNever, 0.0, false},
		{"ratio half", SamplerRatio, 0.5, false},
		{"ratio zero", SamplerRatio, 0.0, false},
		{"ratio one", SamplerRatio, 1.0, false},
		{"ratio negative", SamplerRatio, -0.1, true},
		{"ratio above one", SamplerRatio, 1.5, true},
		{"parent ratio out of range", SamplerParent, 2.0, true},
		{"unknown strategy", "sometimes", 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := newSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newSampler(%q, %g) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
			if !tt.wantErr && sampler == nil {
				t.Error("newSampler returned nil sampler without error")
			}
		})
	}
}

func TestNewSampler_ParentRespectsCaller(t *testing.T) {
	// The default strategy must be parent-based: a run submitted with a
	// sampled traceparent keeps its trace even at ratio 0.
	sampler, err := newSampler(SamplerParent, 0.0)
	if err != nil {
		t.Fatalf("newSampler failed: %v", err)
	}
	if !strings.Contains(sampler.Description(), "ParentBased") {
		t.Errorf("parent sampler description = %q, want ParentBased wrapper", sampler.Description())
	}
}

func TestNewSampler_RatioIgnoresCaller(t *testing.T) {
	// The ratio strategy pins the local rate; it must not defer to the
	// submitting service's decision.
	sampler, err := newSampler(SamplerRatio, 0.25)
	if err != nil {
		t.Fatalf("newSampler failed: %v", err)
	}
	if strings.Contains(sampler.Description(), "ParentBased") {
		t.Errorf("ratio sampler description = %q, should not be parent-based", sampler.Description())
	}
}

func TestNewSampler_ErrorNamesStrategy(t *testing.T) {
	_, err := newSampler("coinflip", 0.5)
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if !strings.Contains(err.Error(), "coinflip") {
		t.Errorf("error should name the rejected strategy: %v", err)
	}
}

func TestNewSampler_AcceptsEveryConfigSamplerValue(t *testing.T) {
	// Every sampler name the config layer validates must build.
	for _, strategy := range []string{SamplerParent, SamplerAlways, SamplerNever, SamplerRatio} {
		if _, err := newSampler(strategy, 0.1); err != nil {
			t.Errorf("config-accepted sampler %q failed to build: %v", strategy, err)
		}
	}
}
