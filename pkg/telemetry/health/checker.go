package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CheckFunc probes one collaborator the export service cannot run without.
// A nil return means the collaborator could serve an export run right now.
//
// Probes should issue a real, cheap read: the server registers a one-entry
// search against the document store and a one-row listing against the run
// store, so readiness reflects the actual run path and not just process
// liveness.
type CheckFunc func(ctx context.Context) error

// DefaultProbeTimeout bounds a single probe. A wedged SQLite file or an
// unreachable store must not hang the readiness endpoint past it.
const DefaultProbeTimeout = 5 * time.Second

// Status strings reported on /health and /ready.
const (
	// StatusOK is the liveness answer and the per-probe success status.
	StatusOK = "ok"

	// StatusReady means every registered probe passed.
	StatusReady = "ready"

	// StatusDegraded means at least one probe failed; the server stays up
	// but should be taken out of rotation until its stores recover.
	StatusDegraded = "degraded"

	// StatusUnhealthy is the per-probe failure status.
	StatusUnhealthy = "unhealthy"
)

// ProbeResult is the outcome of one dependency probe.
type ProbeResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// Report is the aggregate answer for a liveness or readiness request.
type Report struct {
	Status    string                 `json:"status"`
	Checks    map[string]ProbeResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs dependency probes for the export service.
type Checker struct {
	mu           sync.RWMutex
	probes       map[string]CheckFunc
	probeTimeout time.Duration
}

// New creates a checker. probeTimeout bounds each individual probe; zero
// selects DefaultProbeTimeout.
func New(probeTimeout time.Duration) *Checker {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Checker{
		probes:       make(map[string]CheckFunc),
		probeTimeout: probeTimeout,
	}
}

// RegisterCheck adds a named probe, replacing any previous probe with the
// same name.
func (c *Checker) RegisterCheck(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = fn
}

// UnregisterCheck removes a named probe.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.probes, name)
}

// Names returns the registered probe names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Liveness answers the process-alive question without touching any store.
// Long-running drains must not make the process look dead, so this never
// blocks on dependencies.
func (c *Checker) Liveness() Report {
	return Report{
		Status:    StatusOK,
		Timestamp: time.Now(),
	}
}

// Readiness runs every registered probe concurrently and aggregates the
// results. With no probes registered the service is trivially ready.
func (c *Checker) Readiness(ctx context.Context) Report {
	c.mu.RLock()
	probes := make(map[string]CheckFunc, len(c.probes))
	for name, fn := range c.probes {
		probes[name] = fn
	}
	c.mu.RUnlock()

	report := Report{
		Status:    StatusReady,
		Checks:    make(map[string]ProbeResult, len(probes)),
		Timestamp: time.Now(),
	}
	if len(probes) == 0 {
		return report
	}

	type outcome struct {
		name   string
		result ProbeResult
	}
	results := make(chan outcome, len(probes))
	for name, fn := range probes {
		go func(name string, fn CheckFunc) {
			results <- outcome{name: name, result: c.runProbe(ctx, fn)}
		}(name, fn)
	}

	for range probes {
		o := <-results
		report.Checks[o.name] = o.result
		if o.result.Status != StatusOK {
			report.Status = StatusDegraded
		}
	}
	return report
}

// runProbe executes one probe under the checker's timeout. The goroutine
// hand-off keeps a probe that ignores its context from blocking readiness
// forever; the probe itself may leak until its store call returns.
func (c *Checker) runProbe(ctx context.Context, fn CheckFunc) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- fn(probeCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return ProbeResult{
				Status:   StatusUnhealthy,
				Message:  err.Error(),
				Duration: time.Since(start),
			}
		}
		return ProbeResult{
			Status:   StatusOK,
			Duration: time.Since(start),
		}
	case <-probeCtx.Done():
		return ProbeResult{
			Status:   StatusUnhealthy,
			Message:  "probe timed out",
			Duration: time.Since(start),
		}
	}
}
