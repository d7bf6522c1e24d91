package export

import (
	"context"
	"time"
)

// RunStore persists run records so they survive process restarts and can
// be listed after completion. Implementations live in pkg/export/runstore;
// the manager only depends on this interface.
type RunStore interface {
	// SaveRun inserts or replaces the record for run.ID.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun returns the stored run, or nil when the id is unknown.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns stored runs, newest first.
	ListRuns(ctx context.Context, opts ListOptions) ([]*Run, error)

	// DeleteOlderThan removes terminal runs created before cutoff and
	// reports how many rows were removed. Pending and running records
	// are kept regardless of age.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases store resources.
	Close() error
}

// ListOptions narrows a ListRuns call.
type ListOptions struct {
	// State restricts results to a single lifecycle state when non-empty.
	State State

	// Limit caps the number of returned runs. Zero means no cap.
	Limit int
}
