package retention

import (
	"context"
	"testing"

	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/export/runstore"
)

func newTestPruner(t *testing.T, cfg *config.RetentionConfig) *Pruner {
	t.Helper()
	store := runstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	pruner, err := NewPruner(store, t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}
	return pruner
}

func TestSchedulerStart(t *testing.T) {
	pruner := newTestPruner(t, retentionConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer pruner.Stop()

	if !pruner.scheduler.IsRunning() {
		t.Error("scheduler not running after Start")
	}
	if pruner.NextPruning() == nil {
		t.Error("NextPruning() = nil, want a scheduled time")
	}

	pruner.Stop()
	if pruner.scheduler.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}

func TestSchedulerInvalidCron(t *testing.T) {
	cfg := retentionConfig()
	cfg.Schedule = "not a schedule"
	pruner := newTestPruner(t, cfg)

	if err := pruner.Start(context.Background()); err == nil {
		t.Error("Start() with invalid cron expression should error")
	}
}

func TestSchedulerEmptyScheduleIsIdle(t *testing.T) {
	cfg := retentionConfig()
	cfg.Schedule = ""
	pruner := newTestPruner(t, cfg)

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if pruner.scheduler.IsRunning() {
		t.Error("scheduler running despite empty schedule")
	}
	if pruner.NextPruning() != nil {
		t.Error("NextPruning() should be nil with no schedule")
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	pruner := newTestPruner(t, retentionConfig())
	// Must not panic or block.
	pruner.Stop()
}
