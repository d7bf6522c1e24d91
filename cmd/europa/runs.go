package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/europa/pkg/cli"
	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/export"
	"mercator-hq/europa/pkg/retention"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and manage recorded export runs",
	Long: `Inspect and manage the export runs recorded in the run store.

These commands read the run store directly; use them for offline
administration. Against a live server, prefer the HTTP API.`,
}

var runsListFlags struct {
	state    string
	limit    int
	outputAs string
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runRunsList,
}

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Print the full record of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsGet,
}

var runsCancelCmd = &cobra.Command{
	Use:   "cancel <run-id>",
	Short: "Settle an orphaned non-terminal run as cancelled",
	Long: `Settle a non-terminal run record as cancelled.

This acts on the stored record only. It is meant for records orphaned by
a crashed process; to cancel a run executing in a live server, use
DELETE /v1/exports/{id} against that server instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsCancel,
}

var runsPruneFlags struct {
	dryRun bool
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Run one retention pass now",
	Long: `Run one retention pass over artifacts and run records.

The pass applies the configured retention windows immediately, outside
the cron schedule. With --dry-run it only lists what would be removed.`,
	RunE: runRunsPrune,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsGetCmd)
	runsCmd.AddCommand(runsCancelCmd)
	runsCmd.AddCommand(runsPruneCmd)

	runsListCmd.Flags().StringVar(&runsListFlags.state, "state", "", "filter by state (pending, running, succeeded, failed, cancelled)")
	runsListCmd.Flags().IntVar(&runsListFlags.limit, "limit", 20, "maximum runs to list (0 = all)")
	runsListCmd.Flags().StringVar(&runsListFlags.outputAs, "output-format", "text", "output format (text, json)")

	runsPruneCmd.Flags().BoolVar(&runsPruneFlags.dryRun, "dry-run", false, "list candidates without deleting")
}

func loadRunStore() (*config.Config, export.RunStore, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	setupCLILogging()

	store, err := openRunStore(&cfg.Export.RunStore)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return cfg, store, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	_, store, err := loadRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := export.ListOptions{Limit: runsListFlags.limit}
	if runsListFlags.state != "" {
		state := export.State(runsListFlags.state)
		if !export.ValidState(state) {
			return fmt.Errorf("unknown state %q", runsListFlags.state)
		}
		opts.State = state
	}

	runs, err := store.ListRuns(cmd.Context(), opts)
	if err != nil {
		return cli.NewCommandError("runs list", err)
	}

	if runsListFlags.outputAs == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTATE\tENTRIES\tCREATED\tLOCATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.State,
			run.EntriesExported,
			run.CreatedAt.Format(time.RFC3339),
			run.Location,
		)
	}
	return w.Flush()
}

func runRunsGet(cmd *cobra.Command, args []string) error {
	_, store, err := loadRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("runs get", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", args[0])
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, run)
}

func runRunsCancel(cmd *cobra.Command, args []string) error {
	_, store, err := loadRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("runs cancel", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", args[0])
	}
	if run.State.Terminal() {
		return fmt.Errorf("run %s already finished (%s)", run.ID, run.State)
	}

	if err := run.Transition(export.StateCancelled); err != nil {
		return cli.NewCommandError("runs cancel", err)
	}
	if err := store.SaveRun(cmd.Context(), run); err != nil {
		return cli.NewCommandError("runs cancel", err)
	}

	fmt.Printf("✓ Run %s settled as cancelled\n", run.ID)
	return nil
}

func runRunsPrune(cmd *cobra.Command, args []string) error {
	cfg, store, err := loadRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	retentionCfg := cfg.Retention
	retentionCfg.DryRun = retentionCfg.DryRun || runsPruneFlags.dryRun

	pruner, err := retention.NewPruner(store, cfg.Export.Destination.Root, &retentionCfg)
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}

	result, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}

	verb := "Removed"
	if result.DryRun {
		verb = "Would remove"
	}
	fmt.Printf("%s %d artifacts (%d bytes) and %d run records\n",
		verb, result.ArtifactsRemoved, result.BytesFreed, result.RunsRemoved)
	return nil
}
