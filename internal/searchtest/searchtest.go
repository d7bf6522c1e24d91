// Package searchtest provides a scripted search backend for exercising
// the export pipeline in tests: fixed corpus, integer-cursor pagination,
// and per-call failure or hang injection.
package searchtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/search"
)

// Backend serves a fixed corpus page by page. The nth Search call can be
// scripted to fail once or to block until the context is done. Safe for
// concurrent use.
type Backend struct {
	mu       sync.Mutex
	entries  []dataset.Entry
	failures map[int]error
	hangs    map[int]bool
	noTotals bool
	calls    int
	closed   bool
}

// New creates a backend serving the given corpus in slice order.
func New(entries []dataset.Entry) *Backend {
	return &Backend{
		entries:  entries,
		failures: make(map[int]error),
		hangs:    make(map[int]bool),
	}
}

// Entries builds a corpus of n entries with id, element, and temperature
// fields. Temperatures carry a fractional part so numeric cells keep a
// stable rendering across formats.
func Entries(n int) []dataset.Entry {
	entries := make([]dataset.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, dataset.Entry{
			"id":          fmt.Sprintf("e-%d", i+1),
			"element":     []string{"Si", "O"}[i%2],
			"temperature": float64(250) + float64(i) + 0.5,
		})
	}
	return entries
}

// FailCall makes the nth Search call (1-based) return err once.
func (b *Backend) FailCall(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[n] = err
}

// FailCalls makes calls from (1-based) to to return err once each.
func (b *Backend) FailCalls(from, to int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for n := from; n <= to; n++ {
		b.failures[n] = err
	}
}

// HangCall makes the nth Search call block until its context is done.
func (b *Backend) HangCall(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hangs[n] = true
}

// WithoutTotals makes every page report an unknown total.
func (b *Backend) WithoutTotals() *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noTotals = true
	return b
}

// Calls returns how many Search calls arrived so far.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Search returns one page of the corpus. The cursor is the decimal start
// offset of the next page.
func (b *Backend) Search(ctx context.Context, _ *search.Query, cursor string, limit int) (*search.Page, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	err, failNow := b.failures[call]
	if failNow {
		delete(b.failures, call)
	}
	hangNow := b.hangs[call]
	noTotals := b.noTotals
	entries := b.entries
	b.mu.Unlock()

	if hangNow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if failNow {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, search.NewInvalidQueryError("malformed page cursor")
		}
		start = parsed
	}
	if start > len(entries) {
		start = len(entries)
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}

	page := &search.Page{
		Entries: cloneEntries(entries[start:end]),
		Total:   int64(len(entries)),
	}
	if noTotals {
		page.Total = -1
	}
	if end < len(entries) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

// Close marks the backend closed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func cloneEntries(entries []dataset.Entry) []dataset.Entry {
	out := make([]dataset.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Clone())
	}
	return out
}
