package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"meterline/spendguard/pkg/journal"
)

// CSVExporter exports journal entries to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes journal entries to the provided writer in CSV format.
// Costs are written as exact decimal strings.
func (e *CSVExporter) Export(ctx context.Context, entries []*journal.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return journal.NewExportError("csv", len(entries), err)
		}
	}

	for _, entry := range entries {
		if err := writer.Write(entryToRow(entry)); err != nil {
			return journal.NewExportError("csv", len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return journal.NewExportError("csv", len(entries), err)
	}
	return nil
}

// headerRow returns the CSV header row.
func headerRow() []string {
	return []string{
		"id", "model",
		"input_tokens", "output_tokens", "total_tokens",
		"cost",
		"event_time", "recorded_time",
		"anomalous", "note",
	}
}

// entryToRow converts a journal entry to a CSV row.
func entryToRow(entry *journal.Entry) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	return []string{
		entry.ID,
		entry.Model,
		fmt.Sprintf("%d", entry.InputTokens),
		fmt.Sprintf("%d", entry.OutputTokens),
		fmt.Sprintf("%d", entry.TotalTokens()),
		entry.Cost.String(),
		formatTime(entry.EventTime),
		formatTime(entry.RecordedTime),
		fmt.Sprintf("%t", entry.Anomalous),
		entry.Note,
	}
}
