package encoding

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"mercator-hq/europa/pkg/dataset"
)

// defaultRowGroupSize is the Parquet row group size when none is configured.
const defaultRowGroupSize = 128 * 1024 * 1024

// ParquetEncoder produces snappy-compressed Parquet artifacts.
//
// Column types are inferred from the first batch: strings become UTF8,
// numbers DOUBLE (or INT64 for integral Go values), booleans BOOLEAN, and
// anything nested is JSON-encoded into a UTF8 column. All columns are
// optional, so null cells and entries missing an included field encode
// cleanly.
type ParquetEncoder struct {
	// RowGroupSize is the row group size in bytes.
	RowGroupSize int64
}

// NewParquetEncoder creates a Parquet encoder. rowGroupSize <= 0 selects
// the 128 MiB default.
func NewParquetEncoder(rowGroupSize int64) *ParquetEncoder {
	if rowGroupSize <= 0 {
		rowGroupSize = defaultRowGroupSize
	}
	return &ParquetEncoder{RowGroupSize: rowGroupSize}
}

// Format returns FormatParquet.
func (e *ParquetEncoder) Format() Format {
	return FormatParquet
}

// Open starts a Parquet session. The underlying writer is created lazily at
// the first batch because column types are inferred from entry values; a
// session closed without batches still produces a valid zero-row file when
// the schema has columns.
func (e *ParquetEncoder) Open(w io.Writer, schema *dataset.Schema) (Session, error) {
	return &parquetSession{
		w:            w,
		schema:       schema,
		rowGroupSize: e.RowGroupSize,
	}, nil
}

// columnKind is the inferred physical type of a Parquet column.
type columnKind int

const (
	kindUTF8 columnKind = iota
	kindDouble
	kindInt64
	kindBool
	kindJSON
)

type parquetSession struct {
	w            io.Writer
	schema       *dataset.Schema
	rowGroupSize int64

	pw     *writer.JSONWriter
	kinds  map[string]columnKind
	batch  int
	closed bool
}

// WriteBatch encodes one batch. The first batch fixes the column types.
func (s *parquetSession) WriteBatch(entries []dataset.Entry) error {
	if s.closed {
		return NewEncodeError(FormatParquet, fmt.Errorf("write on closed session"))
	}
	if len(entries) == 0 {
		return nil
	}
	s.batch++

	if err := s.schema.Conforms(entries, s.batch); err != nil {
		return err
	}

	if s.pw == nil {
		s.kinds = inferColumnKinds(s.schema, entries)
		if err := s.openWriter(); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		row := make(map[string]any, s.schema.Len())
		for _, field := range s.schema.Fields() {
			value, ok := renderParquetValue(s.kinds[field], entry[field])
			if !ok {
				continue
			}
			row[field] = value
		}
		data, err := json.Marshal(row)
		if err != nil {
			return NewEncodeError(FormatParquet, err)
		}
		if err := s.pw.Write(string(data)); err != nil {
			return NewEncodeError(FormatParquet, err)
		}
	}
	return nil
}

// Close finalizes the Parquet footer. With no batches written and a known
// column set, a zero-row file is still produced; with no columns at all
// nothing is written.
func (s *parquetSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.pw == nil {
		if s.schema.Len() == 0 {
			return nil
		}
		s.kinds = make(map[string]columnKind, s.schema.Len())
		for _, field := range s.schema.Fields() {
			s.kinds[field] = kindUTF8
		}
		if err := s.openWriter(); err != nil {
			return err
		}
	}

	if err := s.pw.WriteStop(); err != nil {
		return NewEncodeError(FormatParquet, err)
	}
	return nil
}

// openWriter builds the tag schema and creates the underlying JSON writer.
func (s *parquetSession) openWriter() error {
	schemaJSON, err := buildParquetSchema(s.schema, s.kinds)
	if err != nil {
		return NewEncodeError(FormatParquet, err)
	}

	fw := writerfile.NewWriterFile(s.w)
	pw, err := writer.NewJSONWriter(schemaJSON, fw, 1)
	if err != nil {
		return NewEncodeError(FormatParquet, err)
	}
	pw.RowGroupSize = s.rowGroupSize
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	s.pw = pw
	return nil
}

// parquetSchemaNode mirrors the JSON schema shape expected by the Parquet
// JSON writer.
type parquetSchemaNode struct {
	Tag    string              `json:"Tag"`
	Fields []parquetSchemaNode `json:"Fields,omitempty"`
}

// buildParquetSchema renders the tag-based schema document for the writer.
func buildParquetSchema(schema *dataset.Schema, kinds map[string]columnKind) (string, error) {
	root := parquetSchemaNode{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: make([]parquetSchemaNode, 0, schema.Len()),
	}
	for _, field := range schema.Fields() {
		root.Fields = append(root.Fields, parquetSchemaNode{
			Tag: columnTag(field, kinds[field]),
		})
	}
	data, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// columnTag renders the writer tag for a single column.
func columnTag(field string, kind columnKind) string {
	switch kind {
	case kindDouble:
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", field)
	case kindInt64:
		return fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", field)
	case kindBool:
		return fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", field)
	default:
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", field)
	}
}

// inferColumnKinds picks a column type per schema field from the first
// non-nil value observed in the batch. Fields that never carry a value in
// the first batch default to UTF8.
func inferColumnKinds(schema *dataset.Schema, entries []dataset.Entry) map[string]columnKind {
	kinds := make(map[string]columnKind, schema.Len())
	for _, field := range schema.Fields() {
		kinds[field] = kindUTF8
		for _, entry := range entries {
			value, ok := entry[field]
			if !ok || value == nil {
				continue
			}
			kinds[field] = kindOf(value)
			break
		}
	}
	return kinds
}

// kindOf maps a Go value to its Parquet column kind.
func kindOf(value any) columnKind {
	switch v := value.(type) {
	case string, time.Time:
		return kindUTF8
	case bool:
		return kindBool
	case float32, float64:
		// JSON decoding yields float64 for every number, and a column
		// that merely starts integral may turn fractional later, so all
		// floats map to DOUBLE.
		return kindDouble
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt64
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return kindInt64
		}
		return kindDouble
	default:
		return kindJSON
	}
}

// renderParquetValue converts an entry value into the JSON shape the column
// expects. The second return is false when the cell should be null.
func renderParquetValue(kind columnKind, value any) (any, bool) {
	if value == nil {
		return nil, false
	}

	switch kind {
	case kindDouble:
		if f, ok := toFloat64(value); ok {
			return f, true
		}
		return nil, false

	case kindInt64:
		switch v := value.(type) {
		case int:
			return int64(v), true
		case int8:
			return int64(v), true
		case int16:
			return int64(v), true
		case int32:
			return int64(v), true
		case int64:
			return v, true
		case uint:
			return int64(v), true
		case uint8:
			return int64(v), true
		case uint16:
			return int64(v), true
		case uint32:
			return int64(v), true
		case uint64:
			return int64(v), true
		case float64:
			if v == math.Trunc(v) {
				return int64(v), true
			}
			return nil, false
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return i, true
			}
			return nil, false
		default:
			return nil, false
		}

	case kindBool:
		if b, ok := value.(bool); ok {
			return b, true
		}
		return nil, false

	case kindJSON:
		return formatJSON(value), true

	default: // kindUTF8
		return formatCell(value), true
	}
}

// toFloat64 widens any numeric entry value to float64.
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
