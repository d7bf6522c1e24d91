package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"mercator-hq/europa/pkg/dataset"
)

// RetryPolicy controls how transient backend failures are retried within a
// batch deadline.
type RetryPolicy struct {
	// MaxAttempts is the total number of fetch attempts per batch.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; each further retry
	// doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
}

// DefaultRetryPolicy mirrors the export action's shipped retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		MaxDelay:    time.Minute,
	}
}

// delay returns the backoff before retry attempt n (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1)) * float64(p.BaseDelay))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// PaginatorConfig configures a paginator for one run.
type PaginatorConfig struct {
	// PageSize is the number of entries requested per page.
	PageSize int

	// BatchTimeout bounds each batch fetch, retries included.
	BatchTimeout time.Duration

	// Retry controls backoff for transient backend failures.
	Retry RetryPolicy
}

// Paginator drains a query from a backend one batch at a time. It is bound
// to a single run and is not safe for concurrent use.
type Paginator struct {
	backend Backend
	query   *Query
	cfg     PaginatorConfig
	logger  *slog.Logger

	cursor  string
	done    bool
	started bool
	total   int64
	fetches int
}

// NewPaginator creates a paginator over backend for the given query.
func NewPaginator(backend Backend, query *Query, cfg PaginatorConfig) *Paginator {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Paginator{
		backend: backend,
		query:   query,
		cfg:     cfg,
		logger:  slog.Default().With("component", "search.paginator"),
		total:   -1,
	}
}

// Done reports whether the query is exhausted.
func (p *Paginator) Done() bool {
	return p.done
}

// Total returns the backend-reported number of matching entries, as seen on
// the first page, or -1 before the first fetch or when unknown.
func (p *Paginator) Total() int64 {
	return p.total
}

// Fetches returns the number of completed batch fetches.
func (p *Paginator) Fetches() int {
	return p.fetches
}

// Next fetches the next batch under the batch deadline. Transient backend
// failures are retried with exponential backoff until the deadline or the
// attempt budget runs out. A nil entry slice with nil error means the query
// finished exactly at the previous page boundary.
func (p *Paginator) Next(ctx context.Context) ([]dataset.Entry, error) {
	if p.done {
		return nil, nil
	}

	fetchCtx := ctx
	cancel := func() {}
	if p.cfg.BatchTimeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, p.cfg.BatchTimeout)
	}
	defer cancel()

	page, err := p.fetchWithRetry(ctx, fetchCtx)
	if err != nil {
		return nil, err
	}

	p.fetches++
	if !p.started {
		p.started = true
		p.total = page.Total
	}
	p.cursor = page.NextCursor
	if p.cursor == "" {
		p.done = true
	}

	p.logger.Debug("fetched page",
		"batch", p.fetches,
		"entries", len(page.Entries),
		"exhausted", p.done,
	)
	return page.Entries, nil
}

// fetchWithRetry runs the attempt loop for one batch. ctx is the run
// context, fetchCtx additionally carries the batch deadline; telling the
// two apart decides whether an expired context means batch timeout or run
// cancellation.
func (p *Paginator) fetchWithRetry(ctx, fetchCtx context.Context) (*Page, error) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.Retry.MaxAttempts; attempt++ {
		page, err := p.backend.Search(fetchCtx, p.query, p.cursor, p.cfg.PageSize)
		if err == nil {
			return page, nil
		}
		if deadlineErr := p.classifyContextErr(ctx, fetchCtx, err); deadlineErr != nil {
			return nil, deadlineErr
		}
		if !IsUnavailable(err) {
			return nil, err
		}

		lastErr = err
		if attempt == p.cfg.Retry.MaxAttempts {
			break
		}

		delay := p.cfg.Retry.delay(attempt)
		p.logger.Warn("search backend unavailable, backing off",
			"attempt", attempt,
			"max_attempts", p.cfg.Retry.MaxAttempts,
			"delay", delay,
			"error", err,
		)

		select {
		case <-fetchCtx.Done():
			if err := p.classifyContextErr(ctx, fetchCtx, fetchCtx.Err()); err != nil {
				return nil, err
			}
			return nil, fetchCtx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// classifyContextErr maps context expiry to the taxonomy: the batch
// deadline becomes a TimeoutError, run cancellation passes through as the
// run context's error. Other errors return nil and are handled by the
// caller.
func (p *Paginator) classifyContextErr(ctx, fetchCtx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case fetchCtx.Err() != nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded):
		return NewTimeoutError(p.cfg.BatchTimeout, err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(p.cfg.BatchTimeout, err)
	default:
		return nil
	}
}
