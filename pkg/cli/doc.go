/*
Package cli provides shared helpers for the spendguard command.

Output formatting:

Commands render results as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Listing commands use the table writer for aligned columns:

	table := cli.NewTable(os.Stdout)
	table.Header("MODEL", "INPUT/1K", "OUTPUT/1K")
	table.Row("gpt-4o", "$0.0025", "$0.0100")
	table.Flush()

Exit codes:

ExitCode maps errors to process exit codes so scripts can tell a budget
denial (2) from a malfunction (1) or a broken configuration (3):

	os.Exit(cli.ExitCode(rootCmd.Execute()))

Signal handling:

	ctx := cli.SetupSignalHandler()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli
