package dataset

import (
	"errors"
	"reflect"
	"testing"
)

func TestProjection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		proj    Projection
		wantErr bool
	}{
		{
			name:    "identity",
			proj:    Projection{},
			wantErr: false,
		},
		{
			name:    "include only",
			proj:    Projection{Include: []string{"id", "temperature"}},
			wantErr: false,
		},
		{
			name:    "exclude only",
			proj:    Projection{Exclude: []string{"raw_blob"}},
			wantErr: false,
		},
		{
			name:    "both set",
			proj:    Projection{Include: []string{"id"}, Exclude: []string{"raw_blob"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.proj.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProjection_Validate_ErrorType(t *testing.T) {
	p := Projection{Include: []string{"a"}, Exclude: []string{"b"}}

	err := p.Validate()
	if err == nil {
		t.Fatal("expected error for projection with both lists")
	}

	var invalidErr *InvalidProjectionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected *InvalidProjectionError, got %T", err)
	}
	if len(invalidErr.Include) != 1 || invalidErr.Include[0] != "a" {
		t.Errorf("unexpected include list in error: %v", invalidErr.Include)
	}
}

func TestProjection_Apply_Include(t *testing.T) {
	entry := Entry{
		"id":          "e-1",
		"temperature": 21.5,
		"pressure":    101.3,
	}

	p := Projection{Include: []string{"id", "temperature"}}
	got := p.Apply(entry)

	want := Entry{"id": "e-1", "temperature": 21.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestProjection_Apply_IncludeMissingFieldOmitted(t *testing.T) {
	entry := Entry{"id": "e-1"}

	p := Projection{Include: []string{"id", "temperature"}}
	got := p.Apply(entry)

	if len(got) != 1 {
		t.Fatalf("expected 1 field, got %d", len(got))
	}
	if _, ok := got["temperature"]; ok {
		t.Error("included field absent from the entry should be omitted, not nil-filled")
	}
	if got["id"] != "e-1" {
		t.Errorf("present included field lost: %v", got)
	}
}

func TestProjection_Apply_Exclude(t *testing.T) {
	entry := Entry{
		"id":       "e-1",
		"raw_blob": "....",
		"owner":    "alice",
	}

	p := Projection{Exclude: []string{"raw_blob"}}
	got := p.Apply(entry)

	if got.Has("raw_blob") {
		t.Error("excluded field should be dropped")
	}
	if !got.Has("id") || !got.Has("owner") {
		t.Error("non-excluded fields should survive")
	}
}

func TestProjection_Apply_ExcludeUnknownField(t *testing.T) {
	entry := Entry{"id": "e-1"}

	p := Projection{Exclude: []string{"does_not_exist"}}
	got := p.Apply(entry)

	if !reflect.DeepEqual(got, entry) {
		t.Errorf("excluding an absent field should be a no-op, got %v", got)
	}
}

func TestProjection_Apply_Identity(t *testing.T) {
	entry := Entry{"id": "e-1", "temperature": 21.5}

	got := Projection{}.Apply(entry)

	if !reflect.DeepEqual(got, entry) {
		t.Errorf("identity projection changed the entry: %v", got)
	}
}

func TestProjection_Apply_DoesNotMutateSource(t *testing.T) {
	entry := Entry{"id": "e-1", "temperature": 21.5}

	p := Projection{Exclude: []string{"temperature"}}
	_ = p.Apply(entry)

	if !entry.Has("temperature") {
		t.Error("Apply mutated the source entry")
	}

	p = Projection{Include: []string{"id", "missing"}}
	_ = p.Apply(entry)

	if entry.Has("missing") {
		t.Error("Apply inserted a field into the source entry")
	}
}

func TestProjection_Apply_ConcurrentUse(t *testing.T) {
	entry := Entry{"id": "e-1", "temperature": 21.5, "pressure": 101.3}
	p := Projection{Include: []string{"id", "temperature"}}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 1000; j++ {
				got := p.Apply(entry)
				if len(got) != 2 {
					t.Errorf("unexpected projected size %d", len(got))
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestProjection_ApplyAll_PreservesOrder(t *testing.T) {
	entries := []Entry{
		{"id": "e-1"},
		{"id": "e-2"},
		{"id": "e-3"},
	}

	got := Projection{Include: []string{"id"}}.ApplyAll(entries)

	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, e := range got {
		want := entries[i]["id"]
		if e["id"] != want {
			t.Errorf("entry %d: got id %v, want %v", i, e["id"], want)
		}
	}
}

func BenchmarkProjection_Apply_Include(b *testing.B) {
	entry := Entry{
		"id":          "e-1",
		"temperature": 21.5,
		"pressure":    101.3,
		"owner":       "alice",
		"uploaded_at": "2025-06-01T12:00:00Z",
	}
	p := Projection{Include: []string{"id", "temperature", "owner"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Apply(entry)
	}
}

func BenchmarkProjection_Apply_Exclude(b *testing.B) {
	entry := Entry{
		"id":          "e-1",
		"temperature": 21.5,
		"pressure":    101.3,
		"owner":       "alice",
		"uploaded_at": "2025-06-01T12:00:00Z",
	}
	p := Projection{Exclude: []string{"pressure"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Apply(entry)
	}
}
