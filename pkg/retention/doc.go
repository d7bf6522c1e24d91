// Package retention prunes old export artifacts and finished run
// records.
//
// A Pruner removes artifact files older than the configured maximum
// age from the artifact directory, sweeps up stale staging temp files
// left behind by crashed runs, and deletes terminal run records past
// their keep window from the run store. Pending and running records
// survive regardless of age.
//
// Passes run on a cron schedule:
//
//	pruner, err := retention.NewPruner(store, artifactDir, &cfg.Retention)
//	if err != nil { ... }
//	if err := pruner.Start(ctx); err != nil { ... }
//	defer pruner.Stop()
//
// With dry-run enabled a pass logs every candidate without deleting
// anything, which is the safe way to validate a new retention window.
package retention
