package presets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mercator-hq/europa/pkg/config"
)

// NotFoundError reports a lookup of a preset the library does not hold.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("preset %q not found", e.Name)
}

// Library holds the loaded presets and keeps them fresh. Presets come
// from a local directory or from a tracked git repository; with Watch
// enabled the library reloads on file changes (file source) or polls
// the remote for new commits (git source).
type Library struct {
	config *config.PresetsConfig
	logger *slog.Logger
	repo   *Repository

	mu      sync.RWMutex
	presets map[string]*Preset

	watcher *FileWatcher
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewLibrary creates a preset library from configuration. For the git
// source the repository manager is created here; cloning happens on the
// first Load.
func NewLibrary(cfg *config.PresetsConfig, logger *slog.Logger) (*Library, error) {
	if cfg == nil {
		return nil, fmt.Errorf("presets config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	lib := &Library{
		config:  cfg,
		logger:  logger.With("component", "presets"),
		presets: make(map[string]*Preset),
		stopCh:  make(chan struct{}),
	}

	switch cfg.Source {
	case "file", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file source requires presets.path")
		}
	case "git":
		repo, err := NewRepository(&cfg.Git)
		if err != nil {
			return nil, fmt.Errorf("failed to create preset repository: %w", err)
		}
		lib.repo = repo
	default:
		return nil, fmt.Errorf("unknown preset source: %s", cfg.Source)
	}

	return lib, nil
}

// Load populates the library. For the git source this syncs the clone
// first. Load is atomic: on any error the previous preset set stays in
// place.
func (l *Library) Load(ctx context.Context) error {
	dir := l.config.Path

	if l.repo != nil {
		if _, err := l.repo.Sync(ctx); err != nil {
			return fmt.Errorf("failed to sync preset repository: %w", err)
		}
		dir = l.repo.PresetDir(l.config.Path)
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.presets = loaded
	l.mu.Unlock()

	l.logger.Info("presets loaded", "count", len(loaded), "dir", dir)
	return nil
}

// Get returns the preset with the given name.
func (l *Library) Get(name string) (*Preset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	preset, ok := l.presets[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return preset, nil
}

// List returns all presets sorted by name.
func (l *Library) List() []*Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Preset, 0, len(l.presets))
	for _, p := range l.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of loaded presets.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.presets)
}

// Watch starts background refresh when the config enables it: fsnotify
// for the file source, commit polling for the git source. Watch returns
// immediately; Close stops the background work.
func (l *Library) Watch(ctx context.Context) error {
	if !l.config.Watch {
		return nil
	}

	if l.repo != nil {
		interval := l.config.Git.PollInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		l.wg.Add(1)
		go l.pollLoop(ctx, interval)
		return nil
	}

	watcher, err := NewFileWatcher(l.config.Path, l.logger)
	if err != nil {
		return fmt.Errorf("failed to create preset watcher: %w", err)
	}
	l.watcher = watcher

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := watcher.Watch(ctx, func() error {
			return l.Load(context.Background())
		}); err != nil {
			l.logger.Error("preset watcher exited", "error", err)
		}
	}()
	return nil
}

// pollLoop fetches the preset repository on an interval and reloads when
// HEAD moves.
func (l *Library) pollLoop(ctx context.Context, interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			result, err := l.repo.Sync(ctx)
			if err != nil {
				l.logger.Error("preset repository sync failed", "error", err)
				continue
			}
			if !result.HadChanges {
				continue
			}
			l.logger.Info("preset repository updated",
				"from", result.FromSHA,
				"to", result.ToSHA,
			)
			if err := l.Load(ctx); err != nil {
				l.logger.Error("preset reload failed", "error", err)
			}
		}
	}
}

// Close stops background watching and polling.
func (l *Library) Close() error {
	close(l.stopCh)

	var err error
	if l.watcher != nil {
		err = l.watcher.Stop()
	}
	l.wg.Wait()
	return err
}
