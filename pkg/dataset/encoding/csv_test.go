package encoding

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"mercator-hq/europa/pkg/dataset"
)

func testEntries() []dataset.Entry {
	return []dataset.Entry{
		{"id": "e-1", "temperature": 21.5},
		{"id": "e-2", "temperature": 18.0},
	}
}

func TestCSVSession_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id", "temperature"})

	sess, err := NewCSVEncoder(true).Open(&buf, schema)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := sess.WriteBatch(testEntries()); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "id,temperature" {
		t.Errorf("header = %q, want %q", lines[0], "id,temperature")
	}
	if lines[1] != "e-1,21.5" {
		t.Errorf("row 1 = %q, want %q", lines[1], "e-1,21.5")
	}
	if lines[2] != "e-2,18" {
		t.Errorf("row 2 = %q, want %q", lines[2], "e-2,18")
	}
}

func TestCSVSession_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id"})

	sess, err := NewCSVEncoder(false).Open(&buf, schema)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1"}}); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := strings.TrimRight(buf.String(), "\n"); got != "e-1" {
		t.Errorf("output should hold the row only, got %q", got)
	}
}

func TestCSVSession_NullAndMissingCells(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id", "pressure", "temperature"})

	sess, _ := NewCSVEncoder(true).Open(&buf, schema)
	batch := []dataset.Entry{
		{"id": "e-1", "temperature": nil, "pressure": 99.8},
		{"id": "e-2", "temperature": 18.0, "pressure": nil},
	}
	if err := sess.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[1] != "e-1,99.8," {
		t.Errorf("row 1 = %q, want null temperature as empty cell", lines[1])
	}
	if lines[2] != "e-2,,18" {
		t.Errorf("row 2 = %q, want null pressure as empty cell", lines[2])
	}
}

func TestCSVSession_OmittedIncludeFieldRendersEmptyCell(t *testing.T) {
	var buf bytes.Buffer
	projection := dataset.Projection{Include: []string{"id", "temperature"}}
	entries := projection.ApplyAll([]dataset.Entry{
		{"id": "e-1", "temperature": 21.5},
		{"id": "e-2"},
	})

	sess, _ := NewCSVEncoder(true).Open(&buf, dataset.DeriveSchema(entries, projection))
	if err := sess.WriteBatch(entries); err != nil {
		t.Fatalf("sparse batch under an include list should encode: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[2] != "e-2," {
		t.Errorf("row 2 = %q, want omitted field as empty cell", lines[2])
	}
}

func TestCSVSession_NestedValuesAsJSON(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id", "tags"})

	sess, _ := NewCSVEncoder(true).Open(&buf, schema)
	batch := []dataset.Entry{
		{"id": "e-1", "tags": []any{"a", "b"}},
	}
	if err := sess.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"[""a"",""b""]"`) {
		t.Errorf("nested value should be JSON-encoded and CSV-escaped, got %q", buf.String())
	}
}

func TestCSVSession_QuotesCommaValues(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"note"})

	sess, _ := NewCSVEncoder(false).Open(&buf, schema)
	if err := sess.WriteBatch([]dataset.Entry{{"note": "hello, world"}}); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := strings.TrimRight(buf.String(), "\n"); got != `"hello, world"` {
		t.Errorf("comma value should be quoted, got %q", got)
	}
}

func TestCSVSession_EmptyRunKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id", "temperature"})

	sess, err := NewCSVEncoder(true).Open(&buf, schema)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := strings.TrimRight(buf.String(), "\n"); got != "id,temperature" {
		t.Errorf("empty run should commit a header-only artifact, got %q", got)
	}
}

func TestCSVSession_SchemaDrift(t *testing.T) {
	var buf bytes.Buffer
	schema := dataset.NewSchema([]string{"id"})

	sess, _ := NewCSVEncoder(true).Open(&buf, schema)
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1"}}); err != nil {
		t.Fatalf("conforming batch failed: %v", err)
	}

	err := sess.WriteBatch([]dataset.Entry{{"id": "e-2", "rogue": 1}})
	if err == nil {
		t.Fatal("expected drift error")
	}
	var drift *dataset.SchemaDriftError
	if !errors.As(err, &drift) {
		t.Fatalf("expected *dataset.SchemaDriftError, got %T", err)
	}
	if drift.Batch != 2 {
		t.Errorf("drift batch = %d, want 2", drift.Batch)
	}
}

func TestCSVSession_WriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	sess, _ := NewCSVEncoder(false).Open(&buf, dataset.NewSchema([]string{"id"}))

	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1"}}); err == nil {
		t.Error("WriteBatch after Close should fail")
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

type failingWriter struct {
	failAfter int
	written   int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.written += len(p)
	if w.written > w.failAfter {
		return 0, errors.New("target unavailable")
	}
	return len(p), nil
}

func TestCSVSession_SurfacesWriterErrors(t *testing.T) {
	schema := dataset.NewSchema([]string{"id"})
	w := &failingWriter{failAfter: 4}

	sess, err := NewCSVEncoder(true).Open(w, schema)
	if err == nil {
		// Header fit into the budget; the batch write must fail instead.
		err = sess.WriteBatch([]dataset.Entry{{"id": strings.Repeat("x", 64)}})
	}
	if err == nil {
		t.Fatal("expected writer error to surface")
	}

	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %T", err)
	}
	if encErr.Format != FormatCSV {
		t.Errorf("error format = %q, want csv", encErr.Format)
	}
}

func BenchmarkCSVSession_WriteBatch(b *testing.B) {
	schema := dataset.NewSchema([]string{"id", "owner", "temperature"})
	batch := make([]dataset.Entry, 100)
	for i := range batch {
		batch[i] = dataset.Entry{"id": "e-1", "owner": "alice", "temperature": 21.5}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		sess, _ := NewCSVEncoder(true).Open(&buf, schema)
		if err := sess.WriteBatch(batch); err != nil {
			b.Fatal(err)
		}
		if err := sess.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
