// Package export provides journal entry exporters. Each exporter
// writes entries to an io.Writer in one output format.
package export

import (
	"context"
	"encoding/json"
	"io"

	"meterline/spendguard/pkg/journal"
)

// JSONExporter exports journal entries to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes journal entries to the provided writer as a JSON
// array. Costs serialize as quoted decimal strings, so the export is
// exact and round-trippable.
func (e *JSONExporter) Export(ctx context.Context, entries []*journal.Entry, w io.Writer) error {
	if len(entries) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return journal.NewExportError("json", len(entries), err)
	}

	if _, err := w.Write(data); err != nil {
		return journal.NewExportError("json", len(entries), err)
	}
	return nil
}
