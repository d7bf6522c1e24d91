package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat selects how command results render on stdout.
type OutputFormat string

const (
	// FormatText prints values with their default representation.
	FormatText OutputFormat = "text"
	// FormatJSON prints indented JSON; the default for run records and
	// runs listings so the output pipes into jq.
	FormatJSON OutputFormat = "json"
	// FormatCSV prints [][]string row data with an optional header.
	FormatCSV OutputFormat = "csv"
)

// Formatter renders one command result, typically a run record or a
// runs listing.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// NewFormatter returns the formatter for the given format. Unknown
// values fall back to text.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter renders values with fmt's default verb, one per line.
type TextFormatter struct{}

func (f *TextFormatter) Format(data any) ([]byte, error) {
	return format(f, data)
}

func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter renders values as JSON, indented unless Indent is false.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Format(data any) ([]byte, error) {
	return format(f, data)
}

func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// CSVFormatter renders [][]string rows, prefixed by Headers when set.
type CSVFormatter struct {
	Headers []string
}

func (f *CSVFormatter) Format(data any) ([]byte, error) {
	return format(f, data)
}

func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	rows, ok := data.([][]string)
	if !ok {
		return fmt.Errorf("CSV formatting requires [][]string, got %T", data)
	}

	cw := csv.NewWriter(w)
	if len(f.Headers) > 0 {
		if err := cw.Write(f.Headers); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// format funnels Format through FormatTo so each formatter implements
// the rendering once.
func format(f Formatter, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
