package main

import (
	"fmt"

	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/export"
	"mercator-hq/europa/pkg/export/destination"
	"mercator-hq/europa/pkg/export/runstore"
	"mercator-hq/europa/pkg/search"
	"mercator-hq/europa/pkg/search/docstore"
	"mercator-hq/europa/pkg/telemetry/metrics"
	"mercator-hq/europa/pkg/telemetry/tracing"
)

// openSearchBackend opens the document store named by the search config.
// The caller owns the returned backend and must close it.
func openSearchBackend(cfg *config.SearchConfig) (search.Backend, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return docstore.OpenSQLite(docstore.SQLiteOptions{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	case "memory":
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported search backend: %s", cfg.Backend)
	}
}

// openRunStore opens the run record store named by the export config.
// The caller owns the returned store and must close it.
func openRunStore(cfg *config.RunStoreConfig) (export.RunStore, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return runstore.NewSQLiteStore(cfg.Path)
	case "memory":
		return runstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported run store backend: %s", cfg.Backend)
	}
}

// exportLimits translates the export config into coordinator limits.
func exportLimits(cfg *config.ExportConfig) export.Limits {
	return export.Limits{
		SearchBatchTimeout: cfg.SearchBatchTimeout,
		MaxEntries:         cfg.MaxEntriesExportLimit,
		PageSize:           cfg.PageSize,
		Retry: search.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}
}

// buildManager wires backend, destination, and run store into an export
// manager. The collector and tracer may be nil.
func buildManager(cfg *config.Config, backend search.Backend, store export.RunStore, collector *metrics.Collector, tracer *tracing.Tracer) (*export.Manager, *destination.Local, error) {
	dest, err := destination.NewLocal(cfg.Export.Destination.Root)
	if err != nil {
		return nil, nil, err
	}

	opts := export.CoordinatorOptions{
		Tracer:    tracer,
		Generator: cfg.Export.Generator,
	}
	if collector != nil {
		opts.Metrics = collector.RunMetrics()
	}

	coordinator := export.NewCoordinator(backend, dest, exportLimits(&cfg.Export), opts)
	manager, err := export.NewManager(coordinator, store, export.ManagerConfig{
		MaxConcurrent: cfg.Export.MaxConcurrentRuns,
	})
	if err != nil {
		return nil, nil, err
	}
	return manager, dest, nil
}
