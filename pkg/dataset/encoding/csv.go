package encoding

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"mercator-hq/europa/pkg/dataset"
)

// CSVEncoder produces RFC 4180 CSV artifacts. Cells holding nested mappings
// or arrays are JSON-encoded; nil cells are empty.
type CSVEncoder struct {
	// IncludeHeader controls whether a header row with the schema's
	// column names is written before the first entry.
	IncludeHeader bool
}

// NewCSVEncoder creates a CSV encoder.
func NewCSVEncoder(includeHeader bool) *CSVEncoder {
	return &CSVEncoder{IncludeHeader: includeHeader}
}

// Format returns FormatCSV.
func (e *CSVEncoder) Format() Format {
	return FormatCSV
}

// Open starts a CSV session. The header row is written immediately so that
// a run with zero entries still commits a well-formed artifact.
func (e *CSVEncoder) Open(w io.Writer, schema *dataset.Schema) (Session, error) {
	cw := csv.NewWriter(w)

	if e.IncludeHeader && schema.Len() > 0 {
		if err := cw.Write(schema.Fields()); err != nil {
			return nil, NewEncodeError(FormatCSV, err)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return nil, NewEncodeError(FormatCSV, err)
		}
	}

	return &csvSession{
		writer: cw,
		schema: schema,
	}, nil
}

type csvSession struct {
	writer *csv.Writer
	schema *dataset.Schema
	batch  int
	closed bool
}

// WriteBatch writes one row per entry, in batch order. The batch must
// conform to the session schema.
func (s *csvSession) WriteBatch(entries []dataset.Entry) error {
	if s.closed {
		return NewEncodeError(FormatCSV, fmt.Errorf("write on closed session"))
	}
	if len(entries) == 0 {
		return nil
	}
	s.batch++

	if err := s.schema.Conforms(entries, s.batch); err != nil {
		return err
	}

	row := make([]string, s.schema.Len())
	for _, entry := range entries {
		for i, field := range s.schema.Fields() {
			row[i] = formatCell(entry[field])
		}
		if err := s.writer.Write(row); err != nil {
			return NewEncodeError(FormatCSV, err)
		}
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return NewEncodeError(FormatCSV, err)
	}
	return nil
}

// Close flushes any buffered rows. Closing an already closed session is a
// no-op.
func (s *csvSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return NewEncodeError(FormatCSV, err)
	}
	return nil
}

// formatCell renders a single entry value as a CSV cell.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case json.Number:
		return v.String()
	default:
		return formatJSON(v)
	}
}

// formatJSON renders nested values as compact JSON for cell embedding.
func formatJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
