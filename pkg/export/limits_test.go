package export

import (
	"testing"
	"time"
)

func TestLimits_Normalize(t *testing.T) {
	var l Limits
	l.Normalize()

	if l.SearchBatchTimeout != DefaultSearchBatchTimeout {
		t.Errorf("SearchBatchTimeout = %v, want %v", l.SearchBatchTimeout, DefaultSearchBatchTimeout)
	}
	if l.MaxEntries != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d, want %d", l.MaxEntries, DefaultMaxEntries)
	}
	if l.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", l.PageSize, DefaultPageSize)
	}
	if l.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", l.Retry.MaxAttempts)
	}
}

func TestLimits_NormalizeKeepsConfiguredValues(t *testing.T) {
	l := Limits{
		SearchBatchTimeout: time.Minute,
		MaxEntries:         500,
		PageSize:           25,
	}
	l.Normalize()
	if l.SearchBatchTimeout != time.Minute || l.MaxEntries != 500 || l.PageSize != 25 {
		t.Errorf("Normalize() overwrote configured values: %+v", l)
	}
}

func TestLimits_EffectiveMaxEntries(t *testing.T) {
	l := DefaultLimits()

	if got := l.effectiveMaxEntries(0); got != DefaultMaxEntries {
		t.Errorf("effectiveMaxEntries(0) = %d, want %d", got, DefaultMaxEntries)
	}
	if got := l.effectiveMaxEntries(50); got != 50 {
		t.Errorf("effectiveMaxEntries(50) = %d, want 50", got)
	}
	if got := l.effectiveMaxEntries(DefaultMaxEntries + 1); got != DefaultMaxEntries {
		t.Errorf("effectiveMaxEntries(over cap) = %d, want %d", got, DefaultMaxEntries)
	}
}

func TestLimits_EffectivePageSize(t *testing.T) {
	l := DefaultLimits()
	l.MaxEntries = 50

	if got := l.effectivePageSize(0); got != 50 {
		t.Errorf("effectivePageSize(0) = %d, want 50 (clamped to cap)", got)
	}
	if got := l.effectivePageSize(10); got != 10 {
		t.Errorf("effectivePageSize(10) = %d, want 10", got)
	}
	if got := l.effectivePageSize(200); got != 50 {
		t.Errorf("effectivePageSize(200) = %d, want 50 (clamped to cap)", got)
	}
}
