package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/export"
)

// staleTempAge is how long a staging temp file may sit in the artifact
// directory before it counts as debris from a crashed run.
const staleTempAge = time.Hour

// PruneResult summarizes one pruning pass.
type PruneResult struct {
	// ArtifactsRemoved counts artifact files deleted (or, in dry-run
	// mode, that would have been deleted).
	ArtifactsRemoved int

	// BytesFreed is the total size of removed artifacts.
	BytesFreed int64

	// RunsRemoved counts terminal run records deleted from the store.
	RunsRemoved int

	// DryRun reports whether the pass only logged candidates.
	DryRun bool
}

// Pruner removes old export artifacts and finished run records. Pending
// and running records are never touched regardless of age.
type Pruner struct {
	store       export.RunStore
	artifactDir string
	config      *config.RetentionConfig
	logger      *slog.Logger
	scheduler   *Scheduler
}

// NewPruner creates a retention pruner over the run store and the
// artifact directory.
func NewPruner(store export.RunStore, artifactDir string, cfg *config.RetentionConfig) (*Pruner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("retention config cannot be nil")
	}
	if artifactDir == "" {
		return nil, fmt.Errorf("artifact directory cannot be empty")
	}

	pruner := &Pruner{
		store:       store,
		artifactDir: artifactDir,
		config:      cfg,
		logger:      slog.Default().With("component", "retention"),
	}
	pruner.scheduler = NewScheduler(pruner)
	return pruner, nil
}

// Prune runs one pass: artifacts past ArtifactMaxAge, stale staging temp
// files, then terminal run records past RunMaxAge. With DryRun set it
// only logs what would go.
func (p *Pruner) Prune(ctx context.Context) (*PruneResult, error) {
	result := &PruneResult{DryRun: p.config.DryRun}

	if p.config.ArtifactMaxAge > 0 {
		if err := p.pruneArtifacts(ctx, result); err != nil {
			return result, fmt.Errorf("prune artifacts: %w", err)
		}
	}

	if p.config.RunMaxAge > 0 {
		if err := p.pruneRuns(ctx, result); err != nil {
			return result, fmt.Errorf("prune run records: %w", err)
		}
	}

	if result.ArtifactsRemoved == 0 && result.RunsRemoved == 0 {
		p.logger.Debug("retention pass found nothing to prune",
			"artifact_max_age", p.config.ArtifactMaxAge.String(),
			"run_max_age", p.config.RunMaxAge.String(),
		)
	} else {
		p.logger.Info("retention pass completed",
			"artifacts_removed", result.ArtifactsRemoved,
			"bytes_freed", result.BytesFreed,
			"runs_removed", result.RunsRemoved,
			"dry_run", result.DryRun,
		)
	}

	return result, nil
}

// pruneArtifacts walks the artifact directory and removes files past the
// retention window, plus staging temp files old enough to be crash
// debris.
func (p *Pruner) pruneArtifacts(ctx context.Context, result *PruneResult) error {
	cutoff := time.Now().Add(-p.config.ArtifactMaxAge)
	tempCutoff := time.Now().Add(-staleTempAge)

	entries, err := os.ReadDir(p.artifactDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read artifact directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		name := entry.Name()
		limit := cutoff
		if isStagingTemp(name) {
			limit = tempCutoff
		}
		if !info.ModTime().Before(limit) {
			continue
		}

		path := filepath.Join(p.artifactDir, name)
		if p.config.DryRun {
			p.logger.Info("would remove artifact",
				"path", path,
				"size", info.Size(),
				"age", time.Since(info.ModTime()).String(),
			)
			result.ArtifactsRemoved++
			result.BytesFreed += info.Size()
			continue
		}

		if err := os.Remove(path); err != nil {
			p.logger.Error("failed to remove artifact", "path", path, "error", err)
			continue
		}
		p.logger.Info("removed artifact",
			"path", path,
			"size", info.Size(),
			"age", time.Since(info.ModTime()).String(),
		)
		result.ArtifactsRemoved++
		result.BytesFreed += info.Size()
	}

	return nil
}

// isStagingTemp recognizes the hidden temp files the local destination
// stages artifacts through.
func isStagingTemp(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}

// pruneRuns deletes terminal run records created before the keep window.
func (p *Pruner) pruneRuns(ctx context.Context, result *PruneResult) error {
	cutoff := time.Now().Add(-p.config.RunMaxAge)

	if p.config.DryRun {
		runs, err := p.store.ListRuns(ctx, export.ListOptions{})
		if err != nil {
			return err
		}
		for _, run := range runs {
			if run.State.Terminal() && run.CreatedAt.Before(cutoff) {
				p.logger.Info("would remove run record",
					"run_id", run.ID,
					"state", string(run.State),
					"created_at", run.CreatedAt,
				)
				result.RunsRemoved++
			}
		}
		return nil
	}

	deleted, err := p.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	result.RunsRemoved = deleted
	return nil
}

// Start begins scheduled pruning. Call during application startup.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning. Call during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pass, or nil when
// no schedule is active.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
