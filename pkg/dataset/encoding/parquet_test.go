package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mercator-hq/europa/pkg/dataset"
)

// parquetMagic frames every Parquet file.
const parquetMagic = "PAR1"

func TestParquetSession_ProducesParquetFraming(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id", "temperature"})

	sess, err := NewParquetEncoder(0).Open(&buf, schema)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := sess.WriteBatch(testEntries()); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := buf.Bytes()
	if len(out) < 2*len(parquetMagic) {
		t.Fatalf("output too short to be a parquet file: %d bytes", len(out))
	}
	if !bytes.HasPrefix(out, []byte(parquetMagic)) {
		t.Error("output missing leading PAR1 magic")
	}
	if !bytes.HasSuffix(out, []byte(parquetMagic)) {
		t.Error("output missing trailing PAR1 magic")
	}
}

func TestParquetSession_EmptyRunWithKnownColumns(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id", "temperature"})

	sess, _ := NewParquetEncoder(0).Open(&buf, schema)
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte(parquetMagic)) || !bytes.HasSuffix(out, []byte(parquetMagic)) {
		t.Error("zero-row file with known columns should still be valid parquet")
	}
}

func TestParquetSession_EmptyRunWithoutColumns(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema(nil)

	sess, _ := NewParquetEncoder(0).Open(&buf, schema)
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("no columns and no rows should write nothing, got %d bytes", buf.Len())
	}
}

func TestParquetSession_SchemaDrift(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id"})

	sess, _ := NewParquetEncoder(0).Open(&buf, schema)
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1"}}); err != nil {
		t.Fatalf("conforming batch failed: %v", err)
	}

	err := sess.WriteBatch([]dataset.Entry{{"rogue": 1}})
	if err == nil {
		t.Fatal("expected drift error")
	}
	var drift *dataset.SchemaDriftError
	if !errors.As(err, &drift) {
		t.Fatalf("expected *dataset.SchemaDriftError, got %T", err)
	}
}

func TestBuildParquetSchema(t *testing.T) {
	schema := dataset.NewSchema([]string{"id", "temperature", "active", "count", "meta"})
	kinds := map[string]columnKind{
		"id":          kindUTF8,
		"temperature": kindDouble,
		"active":      kindBool,
		"count":       kindInt64,
		"meta":        kindJSON,
	}

	schemaJSON, err := buildParquetSchema(schema, kinds)
	if err != nil {
		t.Fatalf("buildParquetSchema failed: %v", err)
	}

	var node parquetSchemaNode
	if err := json.Unmarshal([]byte(schemaJSON), &node); err != nil {
		t.Fatalf("schema document is not valid JSON: %v", err)
	}
	if len(node.Fields) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(node.Fields))
	}
	if node.Fields[0].Tag != "name=id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" {
		t.Errorf("unexpected id tag: %q", node.Fields[0].Tag)
	}
	if !strings.Contains(node.Fields[1].Tag, "type=DOUBLE") {
		t.Errorf("temperature should be DOUBLE: %q", node.Fields[1].Tag)
	}
	if !strings.Contains(node.Fields[2].Tag, "type=BOOLEAN") {
		t.Errorf("active should be BOOLEAN: %q", node.Fields[2].Tag)
	}
	if !strings.Contains(node.Fields[3].Tag, "type=INT64") {
		t.Errorf("count should be INT64: %q", node.Fields[3].Tag)
	}
	if !strings.Contains(node.Fields[4].Tag, "convertedtype=UTF8") {
		t.Errorf("nested meta should be a UTF8 column: %q", node.Fields[4].Tag)
	}
}

func TestInferColumnKinds(t *testing.T) {
	schema := dataset.NewSchema([]string{"id", "temperature", "active", "count", "meta", "empty"})
	batch := []dataset.Entry{
		{"id": "e-1", "temperature": 21.5, "active": true, "count": int64(3), "meta": map[string]any{"a": 1}, "empty": nil},
	}

	kinds := inferColumnKinds(schema, batch)

	if kinds["id"] != kindUTF8 {
		t.Errorf("id kind = %v, want UTF8", kinds["id"])
	}
	if kinds["temperature"] != kindDouble {
		t.Errorf("temperature kind = %v, want DOUBLE", kinds["temperature"])
	}
	if kinds["active"] != kindBool {
		t.Errorf("active kind = %v, want BOOLEAN", kinds["active"])
	}
	if kinds["count"] != kindInt64 {
		t.Errorf("count kind = %v, want INT64", kinds["count"])
	}
	if kinds["meta"] != kindJSON {
		t.Errorf("meta kind = %v, want JSON", kinds["meta"])
	}
	if kinds["empty"] != kindUTF8 {
		t.Errorf("all-nil column should default to UTF8, got %v", kinds["empty"])
	}
}

func TestInferColumnKinds_IntegralFloatsStayDouble(t *testing.T) {
	// JSON decoding turns every number into float64; a column that starts
	// integral may turn fractional in a later batch, so floats never map
	// to INT64.
	schema := dataset.NewSchema([]string{"n"})
	kinds := inferColumnKinds(schema, []dataset.Entry{{"n": 21.0}})

	if kinds["n"] != kindDouble {
		t.Errorf("float64 column kind = %v, want DOUBLE", kinds["n"])
	}
}

func TestRenderParquetValue(t *testing.T) {
	tests := []struct {
		name     string
		kind     columnKind
		value    any
		want     any
		included bool
	}{
		{"nil is null", kindUTF8, nil, nil, false},
		{"string passthrough", kindUTF8, "abc", "abc", true},
		{"number into utf8", kindUTF8, 21.5, "21.5", true},
		{"double passthrough", kindDouble, 21.5, 21.5, true},
		{"int into double", kindDouble, 3, 3.0, true},
		{"string into double is null", kindDouble, "x", nil, false},
		{"int64 passthrough", kindInt64, int64(9), int64(9), true},
		{"integral float into int64", kindInt64, 9.0, int64(9), true},
		{"fractional float into int64 is null", kindInt64, 9.5, nil, false},
		{"bool passthrough", kindBool, true, true, true},
		{"string into bool is null", kindBool, "true", nil, false},
		{"nested into json", kindJSON, []any{"a"}, `["a"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, included := renderParquetValue(tt.kind, tt.value)
			if included != tt.included {
				t.Fatalf("included = %v, want %v", included, tt.included)
			}
			if included && got != tt.want {
				t.Errorf("value = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func BenchmarkParquetSession_WriteBatch(b *testing.B) {
	schema := dataset.NewSchema([]string{"id", "owner", "temperature"})
	batch := make([]dataset.Entry, 100)
	for i := range batch {
		batch[i] = dataset.Entry{"id": "e-1", "owner": "alice", "temperature": 21.5}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		sess, _ := NewParquetEncoder(0).Open(&buf, schema)
		if err := sess.WriteBatch(batch); err != nil {
			b.Fatal(err)
		}
		if err := sess.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
