package encoding

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/europa/pkg/dataset"
)

func TestJSONSession_ArrayRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	sess, err := NewJSONEncoder(false).Open(&buf, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := sess.WriteBatch(testEntries()); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a valid JSON array: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	if decoded[0]["id"] != "e-1" || decoded[1]["id"] != "e-2" {
		t.Errorf("entry order not preserved: %v", decoded)
	}
}

func TestJSONSession_EmptyArray(t *testing.T) {
	var buf bytes.Buffer

	sess, _ := NewJSONEncoder(false).Open(&buf, nil)
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if buf.String() != "[]" {
		t.Errorf("empty run should produce [], got %q", buf.String())
	}
}

func TestJSONSession_MultipleBatches(t *testing.T) {
	var buf bytes.Buffer

	sess, _ := NewJSONEncoder(false).Open(&buf, nil)
	for i := 0; i < 3; i++ {
		if err := sess.WriteBatch(testEntries()); err != nil {
			t.Fatalf("batch %d failed: %v", i+1, err)
		}
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a valid JSON array: %v", err)
	}
	if len(decoded) != 6 {
		t.Errorf("expected 6 entries across batches, got %d", len(decoded))
	}
}

func TestJSONSession_ToleratesHeterogeneousEntries(t *testing.T) {
	var buf bytes.Buffer

	sess, _ := NewJSONEncoder(false).Open(&buf, nil)
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1", "temperature": 21.5}}); err != nil {
		t.Fatalf("batch 1 failed: %v", err)
	}
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-2", "magnetization": -0.2}}); err != nil {
		t.Fatalf("heterogeneous batch should be accepted: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a valid JSON array: %v", err)
	}
	if _, ok := decoded[1]["magnetization"]; !ok {
		t.Error("second entry lost its field")
	}
}

func TestJSONSession_OmitsIncludedFieldsTheEntryLacks(t *testing.T) {
	var buf bytes.Buffer

	projection := dataset.Projection{Include: []string{"id", "temperature"}}
	entries := projection.ApplyAll([]dataset.Entry{
		{"id": "e-1", "temperature": 21.5},
		{"id": "e-2"},
	})

	sess, _ := NewJSONEncoder(false).Open(&buf, dataset.DeriveSchema(entries, projection))
	if err := sess.WriteBatch(entries); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output invalid: %v", err)
	}
	if _, ok := decoded[1]["temperature"]; ok {
		t.Errorf("entry without the field gained a null key: %s", buf.String())
	}
	if strings.Contains(buf.String(), "null") {
		t.Errorf("artifact should not carry null placeholders: %s", buf.String())
	}
}

func TestJSONSession_Pretty(t *testing.T) {
	var buf bytes.Buffer

	sess, _ := NewJSONEncoder(true).Open(&buf, nil)
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1"}}); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "\n") {
		t.Error("pretty output should be multi-line")
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("pretty output is not valid JSON: %v\n%s", err, out)
	}
}

func TestJSONSession_EmptyBatchIgnored(t *testing.T) {
	var buf bytes.Buffer

	sess, _ := NewJSONEncoder(false).Open(&buf, nil)
	if err := sess.WriteBatch(nil); err != nil {
		t.Fatalf("empty batch failed: %v", err)
	}
	if err := sess.WriteBatch([]dataset.Entry{{"id": "e-1"}}); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output invalid: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("expected 1 entry, got %d", len(decoded))
	}
}

func BenchmarkJSONSession_WriteBatch(b *testing.B) {
	batch := make([]dataset.Entry, 100)
	for i := range batch {
		batch[i] = dataset.Entry{"id": "e-1", "owner": "alice", "temperature": 21.5}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		sess, _ := NewJSONEncoder(false).Open(&buf, nil)
		if err := sess.WriteBatch(batch); err != nil {
			b.Fatal(err)
		}
		if err := sess.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
