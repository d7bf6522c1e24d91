package encoding

import (
	"fmt"
	"io"
	"strings"

	"mercator-hq/europa/pkg/dataset"
)

// Format identifies an artifact encoding.
type Format string

const (
	// FormatCSV encodes entries as RFC 4180 CSV with a header row.
	FormatCSV Format = "csv"

	// FormatParquet encodes entries as snappy-compressed Parquet.
	FormatParquet Format = "parquet"

	// FormatJSON encodes entries as a single JSON array of objects.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", NewUnknownFormatError(s)
	}
}

// Extension returns the artifact file extension for the format, without dot.
func (f Format) Extension() string {
	return string(f)
}

// Tabular reports whether the format enforces a fixed column schema.
func (f Format) Tabular() bool {
	return f == FormatCSV || f == FormatParquet
}

// Options tunes encoder behavior. The zero value is ready to use.
type Options struct {
	// CSVNoHeader suppresses the CSV header row.
	CSVNoHeader bool

	// JSONPretty indents JSON output for human consumption.
	JSONPretty bool

	// ParquetRowGroupSize is the Parquet row group size in bytes.
	// Defaults to 128 MiB.
	ParquetRowGroupSize int64
}

// Encoder creates encoding sessions for one format.
type Encoder interface {
	// Format returns the format this encoder produces.
	Format() Format

	// Open starts an encoding session writing to w. The schema fixes
	// column membership and order for tabular formats; JSON ignores it.
	Open(w io.Writer, schema *dataset.Schema) (Session, error)
}

// Session is a single-use streaming encode bound to one export run.
type Session interface {
	// WriteBatch encodes one batch of projected entries. Batches are
	// flushed to the target before WriteBatch returns so destination
	// failures surface at the offending batch.
	WriteBatch(entries []dataset.Entry) error

	// Close finalizes the artifact and reports any deferred write error.
	// Close must be called exactly once, after the last WriteBatch.
	Close() error
}

// New returns the encoder for a format.
func New(format Format, opts Options) (Encoder, error) {
	switch format {
	case FormatCSV:
		return NewCSVEncoder(!opts.CSVNoHeader), nil
	case FormatParquet:
		return NewParquetEncoder(opts.ParquetRowGroupSize), nil
	case FormatJSON:
		return NewJSONEncoder(opts.JSONPretty), nil
	default:
		return nil, NewUnknownFormatError(string(format))
	}
}

// UnknownFormatError reports a format name outside the supported set.
type UnknownFormatError struct {
	Name string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown export format %q (want csv, parquet, or json)", e.Name)
}

// NewUnknownFormatError creates a new unknown format error.
func NewUnknownFormatError(name string) *UnknownFormatError {
	return &UnknownFormatError{Name: name}
}

// EncodeError wraps a failure inside an encoding session with the format
// that produced it.
type EncodeError struct {
	Format Format
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encode failed: %v", e.Format, e.Cause)
}

func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// NewEncodeError creates a new encode error.
func NewEncodeError(format Format, cause error) *EncodeError {
	return &EncodeError{Format: format, Cause: cause}
}
