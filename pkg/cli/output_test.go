package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).FormatTo(&buf, "daily cost: $1.02"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "daily cost: $1.02\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	type summary struct {
		Model string  `json:"model"`
		Cost  float64 `json:"cost"`
	}

	var buf bytes.Buffer
	if err := (&JSONFormatter{Indent: true}).FormatTo(&buf, summary{Model: "gpt-4o", Cost: 0.06}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.Model != "gpt-4o" || decoded.Cost != 0.06 {
		t.Errorf("Decoded = %+v", decoded)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("Expected indented output")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{"json", FormatJSON, "*cli.JSONFormatter"},
		{"text", FormatText, "*cli.TextFormatter"},
		{"unknown falls back to text", OutputFormat("yaml"), "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.format)
			switch tt.want {
			case "*cli.JSONFormatter":
				if _, ok := f.(*JSONFormatter); !ok {
					t.Errorf("NewFormatter(%s) = %T", tt.format, f)
				}
			case "*cli.TextFormatter":
				if _, ok := f.(*TextFormatter); !ok {
					t.Errorf("NewFormatter(%s) = %T", tt.format, f)
				}
			}
		})
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.Header("MODEL", "INPUT/1K")
	table.Row("gpt-4o", "$0.0025")
	table.Row("o1", "$0.0150")
	if err := table.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Lines = %d, want 4 (header, rule, 2 rows)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "MODEL") {
		t.Errorf("Header line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "-----") {
		t.Errorf("Rule line = %q", lines[1])
	}
	// Columns align: every line starts its second column at the same offset.
	col := strings.Index(lines[0], "INPUT/1K")
	if !strings.HasPrefix(lines[2][col:], "$0.0025") {
		t.Errorf("Row columns misaligned: %q", lines[2])
	}
}
