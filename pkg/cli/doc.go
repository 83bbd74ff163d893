/*
Package cli provides command-line helpers for the leakscan command.

Output Formatting:

Scan reports and rule tables can be rendered as text, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.FormatText)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, reports); err != nil {
		return err
	}

The text format mirrors what a user sees in a scan result panel: a risk
badge, a score bar, the matched patterns with masked samples, the matched
keyword categories and a one-line summary.

Progress Reporting:

Scanning several files reports progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "Scanning")
	progress.Start(int64(len(files)))
	for i, f := range files {
		// scan f
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

Exit Codes:

ExitCode maps a command error to a process exit code. ErrLeakDetected,
returned by `leakscan scan --fail-on-leak`, exits with 2 so that scripts can
tell a finding from a failure.
*/
package cli
