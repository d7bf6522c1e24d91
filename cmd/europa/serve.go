package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/europa/pkg/cli"
	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/export"
	"mercator-hq/europa/pkg/presets"
	"mercator-hq/europa/pkg/retention"
	"mercator-hq/europa/pkg/search"
	"mercator-hq/europa/pkg/server"
	"mercator-hq/europa/pkg/telemetry/health"
	"mercator-hq/europa/pkg/telemetry/logging"
	"mercator-hq/europa/pkg/telemetry/metrics"
	"mercator-hq/europa/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Europa export API server",
	Long: `Start the Europa export API server with the specified configuration.

The server listens on the configured address and accepts export
submissions, draining search queries from the document store into
artifacts under the configured limits.

Examples:
  # Start with default config
  europa serve

  # Start with custom config
  europa serve --config /etc/europa/config.yaml

  # Override listen address
  europa serve --listen 0.0.0.0:8080

  # Validate config without starting server
  europa serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Initialize logging based on config
	logger, err := logging.New(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactPII:      cfg.Telemetry.Logging.RedactPII,
		BufferSize:     cfg.Telemetry.Logging.BufferSize,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	defer logger.Shutdown()
	slog.SetDefault(logger.Slog())

	if serveFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Tracing (optional)
	var tracer *tracing.Tracer
	if cfg.Telemetry.Tracing.Enabled {
		tracer, err = tracing.New(&cfg.Telemetry.Tracing)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer tracer.Shutdown(context.Background())
		fmt.Println("✓ Tracing initialized")
	}

	// Metrics (optional)
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	// Document store backend
	slog.Info("opening search backend", "backend", cfg.Search.Backend)
	backend, err := openSearchBackend(&cfg.Search)
	if err != nil {
		return fmt.Errorf("failed to open search backend: %w", err)
	}
	defer backend.Close()
	fmt.Printf("✓ Search backend ready (%s)\n", cfg.Search.Backend)

	// Run record store
	store, err := openRunStore(&cfg.Export.RunStore)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer store.Close()

	// Export manager
	manager, dest, err := buildManager(cfg, backend, store, collector, tracer)
	if err != nil {
		return fmt.Errorf("failed to build export manager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settle records orphaned by an earlier process before accepting
	// new submissions.
	recovered, err := manager.RecoverStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover stale runs: %w", err)
	}
	if recovered > 0 {
		slog.Warn("settled stale run records from previous process", "count", recovered)
	}
	fmt.Printf("✓ Export manager ready (max %d concurrent runs)\n", cfg.Export.MaxConcurrentRuns)

	// Preset library (optional)
	var library *presets.Library
	if cfg.Presets.Enabled {
		library, err = presets.NewLibrary(&cfg.Presets, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create preset library: %w", err)
		}
		if err := library.Load(ctx); err != nil {
			return fmt.Errorf("failed to load presets: %w", err)
		}
		if err := library.Watch(ctx); err != nil {
			slog.Warn("preset refresh disabled", "error", err)
		}
		defer library.Close()
		fmt.Printf("✓ Preset library loaded (%d presets)\n", library.Len())
	}

	// Retention pruner (optional)
	if cfg.Retention.Enabled {
		pruner, err := retention.NewPruner(store, dest.Root(), &cfg.Retention)
		if err != nil {
			return fmt.Errorf("failed to create retention pruner: %w", err)
		}
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("retention scheduler started", "next_pruning", next)
			}
			fmt.Println("✓ Retention scheduler started")
		}
	}

	// Health checks
	checker := health.New(0)
	checker.RegisterCheck("search", func(ctx context.Context) error {
		_, err := backend.Search(ctx, &search.Query{Owner: search.OwnerAll}, "", 1)
		return err
	})
	checker.RegisterCheck("run_store", func(ctx context.Context) error {
		_, err := store.ListRuns(ctx, export.ListOptions{Limit: 1})
		return err
	})

	// HTTP server
	srv := server.NewServer(cfg, manager, collector, checker, server.BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if library != nil {
		srv.SetPresets(library)
	}
	if tracer != nil {
		srv.SetTracer(tracer)
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a shutdown signal or a listener error.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	// The HTTP surface is down; give in-flight runs the shutdown window
	// to settle before the stores close.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := manager.Close(shutdownCtx); err != nil {
		slog.Error("export manager shutdown failed", "error", err)
		return cli.NewCommandError("serve", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Europa v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("export limits",
		"search_batch_timeout", cfg.Export.SearchBatchTimeout.String(),
		"max_entries_export_limit", cfg.Export.MaxEntriesExportLimit,
		"page_size", cfg.Export.PageSize,
	)

	if cfg.Presets.Enabled {
		slog.Debug("presets enabled", "source", cfg.Presets.Source, "path", cfg.Presets.Path)
	}
	if cfg.Retention.Enabled {
		slog.Debug("retention enabled", "schedule", cfg.Retention.Schedule)
	}
}
