package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/europa/pkg/cli"
	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/dataset/encoding"
	"mercator-hq/europa/pkg/export"
	"mercator-hq/europa/pkg/presets"
	"mercator-hq/europa/pkg/search"
)

var exportFlags struct {
	preset     string
	owner      string
	user       string
	filters    []string
	text       string
	include    []string
	exclude    []string
	format     string
	output     string
	maxEntries int64
	pageSize   int
	bundle     bool
	noHeader   bool
	pretty     bool
	outputAs   string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run a one-shot export",
	Long: `Run a single export synchronously and print the result.

The command drains the query from the configured document store into an
artifact under the configured limits, exactly as a server-submitted run
would. Ctrl+C cancels the run at the next batch boundary; the partial
artifact is discarded.

Examples:
  # Export all public entries as CSV
  europa export --owner public --format csv

  # Project specific fields and filter
  europa export --owner all --include id,element,temperature --filter element=Si

  # Run a named preset
  europa export --preset quarterly-survey

  # Bundle the artifact with its manifest
  europa export --owner public --format parquet --bundle --output survey`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlags.preset, "preset", "", "run a named preset instead of an inline query")
	exportCmd.Flags().StringVar(&exportFlags.owner, "owner", "", "owner scope (public, visible, shared, user, staging, all)")
	exportCmd.Flags().StringVar(&exportFlags.user, "user", "", "requesting user for identity-dependent scopes")
	exportCmd.Flags().StringArrayVar(&exportFlags.filters, "filter", nil, "exact-match filter as field=value (repeatable)")
	exportCmd.Flags().StringVar(&exportFlags.text, "text", "", "free-text needle matched against string fields")
	exportCmd.Flags().StringSliceVar(&exportFlags.include, "include", nil, "fields to keep, in output order")
	exportCmd.Flags().StringSliceVar(&exportFlags.exclude, "exclude", nil, "fields to drop")
	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", "csv", "artifact format (csv, parquet, json)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "artifact file name (default: run ID)")
	exportCmd.Flags().Int64Var(&exportFlags.maxEntries, "max-entries", 0, "tighten the entry cap for this run")
	exportCmd.Flags().IntVar(&exportFlags.pageSize, "page-size", 0, "override the search page size")
	exportCmd.Flags().BoolVar(&exportFlags.bundle, "bundle", false, "wrap the artifact in a zip bundle with a manifest")
	exportCmd.Flags().BoolVar(&exportFlags.noHeader, "no-header", false, "omit the CSV header row")
	exportCmd.Flags().BoolVar(&exportFlags.pretty, "pretty", false, "indent JSON artifacts")
	exportCmd.Flags().StringVar(&exportFlags.outputAs, "output-format", "text", "result output format (text, json)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	setupCLILogging()

	// Ctrl+C cancels the run at the next batch boundary.
	ctx := cli.SetupSignalHandler()

	req, err := buildExportRequest(ctx, cfg)
	if err != nil {
		return err
	}

	backend, err := openSearchBackend(&cfg.Search)
	if err != nil {
		return fmt.Errorf("failed to open search backend: %w", err)
	}
	defer backend.Close()

	store, err := openRunStore(&cfg.Export.RunStore)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer store.Close()

	manager, _, err := buildManager(cfg, backend, store, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to build export manager: %w", err)
	}

	run, err := manager.Run(ctx, req)
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	if exportFlags.outputAs == string(cli.FormatJSON) {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, run); err != nil {
			return err
		}
	} else {
		printRunSummary(run)
	}

	if run.State != export.StateSucceeded {
		return cli.NewCommandError("export", fmt.Errorf("run %s %s", run.ID, run.State))
	}
	return nil
}

// buildExportRequest assembles the run request from flags, or resolves a
// named preset. A preset and an inline query are mutually exclusive.
func buildExportRequest(ctx context.Context, cfg *config.Config) (*export.Request, error) {
	if exportFlags.preset != "" {
		if exportFlags.owner != "" || len(exportFlags.filters) > 0 || exportFlags.text != "" {
			return nil, fmt.Errorf("--preset cannot be combined with inline query flags")
		}
		if !cfg.Presets.Enabled {
			return nil, cli.NewConfigError("presets.enabled", "preset library is not enabled")
		}
		library, err := presets.NewLibrary(&cfg.Presets, slog.Default())
		if err != nil {
			return nil, err
		}
		defer library.Close()
		if err := library.Load(ctx); err != nil {
			return nil, fmt.Errorf("failed to load presets: %w", err)
		}
		preset, err := library.Get(exportFlags.preset)
		if err != nil {
			return nil, err
		}
		return preset.Request, nil
	}

	filters, err := parseFilters(exportFlags.filters)
	if err != nil {
		return nil, err
	}

	format, err := encoding.ParseFormat(exportFlags.format)
	if err != nil {
		return nil, err
	}

	return &export.Request{
		Query: &search.Query{
			Owner:   exportFlags.owner,
			User:    exportFlags.user,
			Filters: filters,
			Text:    exportFlags.text,
		},
		Projection: dataset.Projection{
			Include: exportFlags.include,
			Exclude: exportFlags.exclude,
		},
		Format:      format,
		FileName:    exportFlags.output,
		Bundle:      exportFlags.bundle,
		MaxEntries:  exportFlags.maxEntries,
		PageSize:    exportFlags.pageSize,
		CSVNoHeader: exportFlags.noHeader,
		JSONPretty:  exportFlags.pretty,
	}, nil
}

// parseFilters converts repeated field=value flags into a filter map.
func parseFilters(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(raw))
	for _, f := range raw {
		field, value, found := strings.Cut(f, "=")
		if !found || field == "" {
			return nil, fmt.Errorf("invalid filter %q, expected field=value", f)
		}
		filters[field] = value
	}
	return filters, nil
}

func printRunSummary(run *export.Run) {
	fmt.Printf("Run:     %s\n", run.ID)
	fmt.Printf("State:   %s\n", run.State)
	fmt.Printf("Entries: %d", run.EntriesExported)
	if run.EntriesAvailable > run.EntriesExported {
		fmt.Printf(" of %d available", run.EntriesAvailable)
	}
	fmt.Println()
	if run.Truncated {
		fmt.Println("Note:    output truncated at the entry cap")
	}
	switch run.State {
	case export.StateSucceeded:
		fmt.Printf("Output:  %s\n", run.Location)
	case export.StateFailed:
		fmt.Printf("Error:   %s (%s)\n", run.ErrorMessage, run.ErrorKind)
	}
}

// setupCLILogging keeps command output clean: warnings and errors only,
// unless --verbose asks for the full stream.
func setupCLILogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
