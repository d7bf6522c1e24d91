package export

import (
	"time"

	"mercator-hq/europa/pkg/search"
)

// Default run limits. Deployments override them in configuration;
// requests may tighten but never widen them.
const (
	DefaultSearchBatchTimeout = 2 * time.Hour
	DefaultMaxEntries         = 100_000
	DefaultPageSize           = 100
)

// Limits bounds every export run the coordinator executes.
type Limits struct {
	// SearchBatchTimeout bounds each batch fetch, retries included.
	SearchBatchTimeout time.Duration

	// MaxEntries caps how many entries a single run may export. Runs
	// that hit the cap succeed with the truncated flag set.
	MaxEntries int64

	// PageSize is the number of entries requested per search page.
	PageSize int

	// Retry controls backoff for transient search failures.
	Retry search.RetryPolicy
}

// DefaultLimits returns the shipped limit set.
func DefaultLimits() Limits {
	return Limits{
		SearchBatchTimeout: DefaultSearchBatchTimeout,
		MaxEntries:         DefaultMaxEntries,
		PageSize:           DefaultPageSize,
		Retry:              search.DefaultRetryPolicy(),
	}
}

// Normalize fills zero fields with defaults so a partially configured
// Limits is safe to use.
func (l *Limits) Normalize() {
	if l.SearchBatchTimeout <= 0 {
		l.SearchBatchTimeout = DefaultSearchBatchTimeout
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	if l.PageSize <= 0 {
		l.PageSize = DefaultPageSize
	}
	if l.Retry.MaxAttempts <= 0 {
		l.Retry = search.DefaultRetryPolicy()
	}
}

// effectiveMaxEntries resolves a request's entry cap against the
// configured ceiling.
func (l Limits) effectiveMaxEntries(requested int64) int64 {
	if requested > 0 && requested < l.MaxEntries {
		return requested
	}
	return l.MaxEntries
}

// effectivePageSize resolves a request's page size against the configured
// default, never exceeding the entry cap.
func (l Limits) effectivePageSize(requested int) int {
	size := l.PageSize
	if requested > 0 {
		size = requested
	}
	if max := l.MaxEntries; max > 0 && int64(size) > max {
		size = int(max)
	}
	return size
}
