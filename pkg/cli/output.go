package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatText is human-oriented plain text (default).
	FormatText OutputFormat = "text"

	// FormatJSON is machine-oriented JSON.
	FormatJSON OutputFormat = "json"
)

// Formatter renders command results.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter prints values with their String method or default verb.
type TextFormatter struct{}

// FormatTo writes data as plain text.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter prints values as indented JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// NewFormatter returns the formatter for a format name. Unknown names
// fall back to text.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TextFormatter{}
	}
}

// Table renders aligned columns for listing commands (models, journal,
// status). Call Header once, Row per line, then Flush.
type Table struct {
	w *tabwriter.Writer
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

// Header writes the column titles and a separator line.
func (t *Table) Header(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))

	rules := make([]string, len(cols))
	for i, c := range cols {
		rules[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(t.w, strings.Join(rules, "\t"))
}

// Row writes one data row.
func (t *Table) Row(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

// Flush aligns and emits everything written so far.
func (t *Table) Flush() error {
	return t.w.Flush()
}
