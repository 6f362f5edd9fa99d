package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/cli"
	"meterline/spendguard/pkg/journal"
	"meterline/spendguard/pkg/journal/export"
	"meterline/spendguard/pkg/journal/retention"
	journalstorage "meterline/spendguard/pkg/journal/storage"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query, export, and prune the per-event usage journal",
}

// journalFilterFlags holds the filter flags shared by query and export.
type journalFilterFlags struct {
	model     string
	anomalous bool
	minCost   string
	maxCost   string
	minTokens int64
	maxTokens int64
	since     string
	until     string
	limit     int
	offset    int
	sortBy    string
	order     string
}

func addJournalFilterFlags(cmd *cobra.Command, f *journalFilterFlags, defaultLimit int) {
	cmd.Flags().StringVar(&f.model, "model", "", "filter by exact model identifier")
	cmd.Flags().BoolVar(&f.anomalous, "anomalous", false, "only late-arriving (anomalous) entries")
	cmd.Flags().StringVar(&f.minCost, "min-cost", "", "minimum entry cost in USD")
	cmd.Flags().StringVar(&f.maxCost, "max-cost", "", "maximum entry cost in USD")
	cmd.Flags().Int64Var(&f.minTokens, "min-tokens", 0, "minimum combined token count")
	cmd.Flags().Int64Var(&f.maxTokens, "max-tokens", 0, "maximum combined token count")
	cmd.Flags().StringVar(&f.since, "since", "", "earliest recorded time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "latest recorded time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.limit, "limit", defaultLimit, "maximum entries to return")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "entries to skip")
	cmd.Flags().StringVar(&f.sortBy, "sort", "recorded_time", "sort field (recorded_time, event_time, cost, total_tokens)")
	cmd.Flags().StringVar(&f.order, "order", "desc", "sort order (asc or desc)")
}

// buildQuery converts flag values to a journal query. Changed-flag
// detection distinguishes an explicit zero bound from an absent one.
func (f *journalFilterFlags) buildQuery(cmd *cobra.Command) (*journal.Query, error) {
	q := &journal.Query{
		Model:         f.model,
		AnomalousOnly: f.anomalous,
		Limit:         f.limit,
		Offset:        f.offset,
		SortBy:        f.sortBy,
		SortOrder:     f.order,
	}

	if f.since != "" {
		ts, err := parseTimeFlag(f.since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		q.StartTime = &ts
	}
	if f.until != "" {
		ts, err := parseTimeFlag(f.until)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		q.EndTime = &ts
	}
	if f.minCost != "" {
		d, err := decimal.NewFromString(f.minCost)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-cost %q: %w", f.minCost, err)
		}
		q.MinCost = &d
	}
	if f.maxCost != "" {
		d, err := decimal.NewFromString(f.maxCost)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-cost %q: %w", f.maxCost, err)
		}
		q.MaxCost = &d
	}
	if cmd.Flags().Changed("min-tokens") {
		v := f.minTokens
		q.MinTokens = &v
	}
	if cmd.Flags().Changed("max-tokens") {
		v := f.maxTokens
		q.MaxTokens = &v
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// parseTimeFlag accepts RFC 3339 timestamps and bare dates.
func parseTimeFlag(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}

// openJournalStorage opens the configured journal backend directly,
// without the rest of the engine.
func openJournalStorage() (journal.Storage, error) {
	cfg, err := setup()
	if err != nil {
		return nil, err
	}
	if !cfg.JournalEnabled() {
		fmt.Fprintln(os.Stderr, "Note: the journal is disabled; new events are not being recorded.")
	}
	return journalstorage.FromConfig(&cfg.Journal)
}

// ============================================================
// journal query
// ============================================================

var journalQueryFlags struct {
	journalFilterFlags
	format string
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List journal entries matching filters",
	Example: `  spendguard journal query --model gpt-4o --limit 20
  spendguard journal query --anomalous --since 2026-08-01
  spendguard journal query --min-cost 0.50 --sort cost --order desc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := journalQueryFlags.buildQuery(cmd)
		if err != nil {
			return err
		}

		store, err := openJournalStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Query(context.Background(), query)
		if err != nil {
			return err
		}

		if journalQueryFlags.format == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, entries)
		}

		printEntries(entries)
		return nil
	},
}

func printEntries(entries []*journal.Entry) {
	if len(entries) == 0 {
		fmt.Println("No matching entries.")
		return
	}

	tbl := cli.NewTable(os.Stdout)
	tbl.Header("RECORDED", "MODEL", "INPUT", "OUTPUT", "COST", "FLAGS")
	total := decimal.Zero
	for _, e := range entries {
		flags := ""
		if e.Anomalous {
			flags = "anomalous"
		}
		tbl.Row(
			e.RecordedTime.Local().Format("2006-01-02 15:04:05"),
			e.Model,
			fmt.Sprintf("%d", e.InputTokens),
			fmt.Sprintf("%d", e.OutputTokens),
			"$"+e.Cost.StringFixed(6),
			flags,
		)
		total = total.Add(e.Cost)
	}
	tbl.Flush()
	fmt.Printf("\n%d entries, total cost $%s\n", len(entries), total.StringFixed(4))
}

// ============================================================
// journal export
// ============================================================

var journalExportFlags struct {
	journalFilterFlags
	format string
	output string
	pretty bool
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journal entries as JSON or CSV",
	Long: `Export writes matching entries to a file or stdout. Costs serialize
as decimal strings in both formats, so exports are exact.`,
	Example: `  spendguard journal export --format csv --output usage.csv
  spendguard journal export --since 2026-08-01 --pretty > august.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := journalExportFlags.buildQuery(cmd)
		if err != nil {
			return err
		}

		var exporter journal.Exporter
		switch journalExportFlags.format {
		case "json":
			exporter = export.NewJSONExporter(journalExportFlags.pretty)
		case "csv":
			exporter = export.NewCSVExporter(true)
		default:
			return fmt.Errorf("unknown export format %q (want json or csv)", journalExportFlags.format)
		}

		store, err := openJournalStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Query(context.Background(), query)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if journalExportFlags.output != "" && journalExportFlags.output != "-" {
			f, err := os.Create(journalExportFlags.output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", journalExportFlags.output, err)
			}
			defer f.Close()
			w = f
		}

		if err := exporter.Export(context.Background(), entries, w); err != nil {
			return err
		}
		if journalExportFlags.output != "" && journalExportFlags.output != "-" {
			fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", len(entries), journalExportFlags.output)
		}
		return nil
	},
}

// ============================================================
// journal prune
// ============================================================

var journalPruneFlags struct {
	days        int
	maxEntries  int64
	archive     bool
	archivePath string
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal entries per retention policy",
	Long: `Prune runs one retention pass: entries older than the retention
window are deleted first, then the oldest entries beyond the maximum
count. Flags override the configured policy for this run.`,
	Example: `  spendguard journal prune
  spendguard journal prune --days 30 --archive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		rc := &retention.Config{
			RetentionDays:       cfg.Journal.Retention.Days,
			MaxEntries:          cfg.Journal.Retention.MaxEntries,
			ArchiveBeforeDelete: cfg.Journal.Retention.ArchiveBeforeDelete,
			ArchivePath:         cfg.Journal.Retention.ArchivePath,
		}
		if cmd.Flags().Changed("days") {
			rc.RetentionDays = journalPruneFlags.days
		}
		if cmd.Flags().Changed("max-entries") {
			rc.MaxEntries = journalPruneFlags.maxEntries
		}
		if cmd.Flags().Changed("archive") {
			rc.ArchiveBeforeDelete = journalPruneFlags.archive
		}
		if cmd.Flags().Changed("archive-path") {
			rc.ArchivePath = journalPruneFlags.archivePath
		}

		if rc.RetentionDays <= 0 && rc.MaxEntries <= 0 {
			fmt.Println("No retention policy configured; nothing to prune.")
			return nil
		}

		store, err := journalstorage.FromConfig(&cfg.Journal)
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := retention.NewPruner(store, rc).Prune(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d entries.\n", deleted)
		return nil
	},
}

func init() {
	addJournalFilterFlags(journalQueryCmd, &journalQueryFlags.journalFilterFlags, journal.DefaultLimit)
	journalQueryCmd.Flags().StringVar(&journalQueryFlags.format, "format", "text", "output format (text or json)")

	addJournalFilterFlags(journalExportCmd, &journalExportFlags.journalFilterFlags, journal.MaxLimit)
	journalExportCmd.Flags().StringVar(&journalExportFlags.format, "format", "json", "export format (json or csv)")
	journalExportCmd.Flags().StringVarP(&journalExportFlags.output, "output", "o", "", "output file (default stdout)")
	journalExportCmd.Flags().BoolVar(&journalExportFlags.pretty, "pretty", false, "pretty-print JSON output")

	journalPruneCmd.Flags().IntVar(&journalPruneFlags.days, "days", 0, "retention window in days (overrides config)")
	journalPruneCmd.Flags().Int64Var(&journalPruneFlags.maxEntries, "max-entries", 0, "maximum entries to keep (overrides config)")
	journalPruneCmd.Flags().BoolVar(&journalPruneFlags.archive, "archive", false, "export entries to JSON before deleting")
	journalPruneCmd.Flags().StringVar(&journalPruneFlags.archivePath, "archive-path", "", "archive directory (overrides config)")

	journalCmd.AddCommand(journalQueryCmd, journalExportCmd, journalPruneCmd)
	rootCmd.AddCommand(journalCmd)
}
