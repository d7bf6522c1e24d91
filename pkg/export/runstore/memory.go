package runstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mercator-hq/europa/pkg/export"
)

// MemoryStore implements export.RunStore with an in-process map. Records
// do not survive restarts; one-shot CLI invocations and tests use it.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*export.Run
}

// NewMemoryStore creates an empty in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*export.Run),
	}
}

// SaveRun inserts or replaces the record for run.ID. The stored record
// is a snapshot; later mutations of run are not visible until the next
// save.
func (s *MemoryStore) SaveRun(_ context.Context, run *export.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if run.ID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	snapshot := run.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = &snapshot
	return nil
}

// GetRun returns a copy of the stored run, or nil when the id is unknown.
func (s *MemoryStore) GetRun(_ context.Context, id string) (*export.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	snapshot := run.Snapshot()
	return &snapshot, nil
}

// ListRuns returns stored runs, newest first.
func (s *MemoryStore) ListRuns(_ context.Context, opts export.ListOptions) ([]*export.Run, error) {
	s.mu.RLock()
	var runs []*export.Run
	for _, run := range s.runs {
		if opts.State != "" && run.State != opts.State {
			continue
		}
		snapshot := run.Snapshot()
		runs = append(runs, &snapshot)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})

	if opts.Limit > 0 && len(runs) > opts.Limit {
		runs = runs[:opts.Limit]
	}
	return runs, nil
}

// DeleteOlderThan removes terminal runs created before cutoff.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, run := range s.runs {
		if !run.State.Terminal() {
			continue
		}
		if run.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases the store. It has no background resources, so this is
// a no-op kept for interface symmetry.
func (s *MemoryStore) Close() error {
	return nil
}
