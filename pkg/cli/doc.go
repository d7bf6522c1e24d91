/*
Package cli holds the shared pieces of the europa command: output
formatters, a row-level progress bar, signal handling, and the error
types subcommands return.

Output formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, run); err != nil {
		return cli.NewCommandError("runs get", err)
	}

Progress reporting, used when seeding a document store:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(int64(len(docs)))
	for i, doc := range docs {
		// index the document
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal handling for a synchronous export:

	ctx := cli.SetupSignalHandler()
	run, err := manager.Run(ctx, req)
*/
package cli
