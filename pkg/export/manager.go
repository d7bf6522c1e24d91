package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxConcurrentRuns bounds how many exports execute at once when
// the manager configuration leaves MaxConcurrent unset.
const DefaultMaxConcurrentRuns = 4

// persistTimeout bounds each run store write issued by the manager.
const persistTimeout = 5 * time.Second

// Manager owns the run lifecycle around a coordinator: it admits
// requests, bounds how many exports execute at once, persists every
// state change to the run store, and serves cancellation.
//
// # Example
//
//	manager, err := export.NewManager(coordinator, store, export.ManagerConfig{
//	    MaxConcurrent: 2,
//	})
//
//	run, err := manager.Submit(ctx, req)
//	// ... later ...
//	err = manager.Cancel(ctx, run.ID)
type Manager struct {
	coordinator *Coordinator
	store       RunStore
	logger      *slog.Logger

	// sem bounds concurrent executions; submissions beyond the bound
	// queue in pending state.
	sem chan struct{}

	mu     sync.Mutex
	active map[string]*activeRun
	closed bool
	wg     sync.WaitGroup
}

// ManagerConfig contains configuration for the export manager.
type ManagerConfig struct {
	// MaxConcurrent is the number of runs allowed to execute at once.
	// Default: DefaultMaxConcurrentRuns
	MaxConcurrent int
}

// activeRun is the cancellation handle for a submitted run.
type activeRun struct {
	cancelled atomic.Bool
	stop      context.CancelFunc
	done      chan struct{}
}

// NewManager creates a manager driving the coordinator and persisting
// runs to the store. The store stays owned by the caller; Close does not
// close it.
func NewManager(coordinator *Coordinator, store RunStore, cfg ManagerConfig) (*Manager, error) {
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}

	return &Manager{
		coordinator: coordinator,
		store:       store,
		logger:      slog.Default().With("component", "export.manager"),
		sem:         make(chan struct{}, maxConcurrent),
		active:      make(map[string]*activeRun),
	}, nil
}

// Submit validates the request, records a pending run, and starts it in
// the background. The returned run is a snapshot; poll Get for progress.
//
// The run deliberately does not inherit ctx: a run submitted over HTTP
// must outlive the submitting request.
func (m *Manager) Submit(ctx context.Context, req *Request) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run := NewRun(req)
	if err := m.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	runCtx, stop := context.WithCancel(context.Background())
	h := &activeRun{
		stop: stop,
		done: make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		stop()
		// The pending record is already persisted; settle it.
		_ = run.Transition(StateCancelled)
		m.persist(run.Snapshot())
		return nil, fmt.Errorf("export manager is closed")
	}
	m.active[run.ID] = h
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("export run submitted",
		"run_id", run.ID,
		"format", req.Format,
	)

	go m.drive(runCtx, run, h)

	snapshot := run.Snapshot()
	return &snapshot, nil
}

// Run executes the request synchronously and returns the terminal run
// record. Cancelling ctx cancels the run and still returns its final
// cancelled record.
func (m *Manager) Run(ctx context.Context, req *Request) (*Run, error) {
	run, err := m.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := m.Wait(ctx, run.ID); err != nil {
		// The caller gave up; unwind the run before reporting back.
		_ = m.Cancel(context.Background(), run.ID)
		_ = m.Wait(context.Background(), run.ID)
	}

	return m.Get(context.Background(), run.ID)
}

// Wait blocks until the run reaches a terminal state or ctx is done.
// Unknown or already-finished runs return immediately.
func (m *Manager) Wait(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the stored record for the run.
func (m *Manager) Get(ctx context.Context, id string) (*Run, error) {
	run, err := m.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, NewRunNotFoundError(id)
	}
	return run, nil
}

// List returns stored runs, newest first.
func (m *Manager) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	return m.store.ListRuns(ctx, opts)
}

// Cancel requests cancellation of a run. Queued runs cancel immediately;
// executing runs stop at the next batch boundary or mid-fetch. Finished
// runs return a RunFinishedError.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		h.cancelled.Store(true)
		h.stop()
		m.logger.Info("export run cancel requested", "run_id", id)
		return nil
	}

	run, err := m.store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return NewRunNotFoundError(id)
	}
	if run.State.Terminal() {
		return NewRunFinishedError(id, run.State)
	}

	// A non-terminal record without a handle was orphaned by an earlier
	// process. Settle it now.
	if err := run.Transition(StateCancelled); err != nil {
		return err
	}
	return m.store.SaveRun(ctx, run)
}

// RecoverStale settles non-terminal records left behind by an earlier
// process, marking them failed. Call it once at startup, before the
// first Submit. Returns how many records were settled.
func (m *Manager) RecoverStale(ctx context.Context) (int, error) {
	settled := 0
	for _, state := range []State{StatePending, StateRunning} {
		runs, err := m.store.ListRuns(ctx, ListOptions{State: state})
		if err != nil {
			return settled, err
		}
		for _, run := range runs {
			m.mu.Lock()
			_, live := m.active[run.ID]
			m.mu.Unlock()
			if live {
				continue
			}

			if run.State == StatePending {
				if err := run.Transition(StateRunning); err != nil {
					return settled, err
				}
			}
			if err := run.Transition(StateFailed); err != nil {
				return settled, err
			}
			run.ErrorKind = ErrorKindInternal
			run.ErrorMessage = "interrupted by process restart"
			if err := m.store.SaveRun(ctx, run); err != nil {
				return settled, err
			}
			settled++

			m.logger.Warn("settled interrupted export run",
				"run_id", run.ID,
			)
		}
	}
	return settled, nil
}

// Close stops accepting submissions, cancels active runs, and waits for
// them to unwind or ctx to expire. The run store is not closed.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, h := range m.active {
		h.cancelled.Store(true)
		h.stop()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drive takes the run from pending to terminal on its own goroutine.
func (m *Manager) drive(ctx context.Context, run *Run, h *activeRun) {
	defer func() {
		m.persist(run.Snapshot())
		m.remove(run.ID)
		close(h.done)
		m.wg.Done()
	}()
	defer h.stop()

	// Hold in pending state until an execution slot frees up.
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		m.cancelQueued(run)
		return
	}
	defer func() { <-m.sem }()

	if h.cancelled.Load() {
		m.cancelQueued(run)
		return
	}

	// Failures are recorded on the run and logged by the coordinator.
	_ = m.coordinator.Execute(ctx, run, ExecuteOptions{
		Cancelled: h.cancelled.Load,
		OnUpdate:  m.persist,
	})
}

// cancelQueued settles a run that was cancelled before execution began.
func (m *Manager) cancelQueued(run *Run) {
	_ = run.Transition(StateCancelled)
	m.logger.Info("export run cancelled while queued", "run_id", run.ID)
}

// persist writes a run snapshot to the store. It runs on its own
// context; the run context is already cancelled when a cancelled run's
// terminal state is saved.
func (m *Manager) persist(run Run) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := m.store.SaveRun(ctx, &run); err != nil {
		m.logger.Error("failed to persist run",
			"run_id", run.ID,
			"error", err,
		)
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}
