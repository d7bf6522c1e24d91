package main

import (
	"testing"

	"mercator-hq/europa/pkg/search/docstore"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "empty",
			raw:  nil,
			want: nil,
		},
		{
			name: "single filter",
			raw:  []string{"element=Si"},
			want: map[string]any{"element": "Si"},
		},
		{
			name: "multiple filters",
			raw:  []string{"element=Fe", "site=north-ridge"},
			want: map[string]any{"element": "Fe", "site": "north-ridge"},
		},
		{
			name: "value containing equals",
			raw:  []string{"note=a=b"},
			want: map[string]any{"note": "a=b"},
		},
		{
			name:    "missing separator",
			raw:     []string{"element"},
			wantErr: true,
		},
		{
			name:    "empty field name",
			raw:     []string{"=Si"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFilters() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseFilters() = %v, want %v", got, tt.want)
			}
			for field, value := range tt.want {
				if got[field] != value {
					t.Errorf("filter %q = %v, want %v", field, got[field], value)
				}
			}
		})
	}
}

func TestGenerateDocuments(t *testing.T) {
	docs := generateDocuments(25, docstore.ScopePublic, "alice")

	if len(docs) != 25 {
		t.Fatalf("generated %d documents, want 25", len(docs))
	}
	for i, doc := range docs {
		if doc.OwnerScope != docstore.ScopePublic {
			t.Errorf("doc %d scope = %q, want %q", i, doc.OwnerScope, docstore.ScopePublic)
		}
		if doc.OwnerUser != "alice" {
			t.Errorf("doc %d owner = %q, want alice", i, doc.OwnerUser)
		}
		for _, field := range []string{"element", "temperature", "pressure", "site", "sequence"} {
			if !doc.Fields.Has(field) {
				t.Errorf("doc %d missing field %q", i, field)
			}
		}
	}
}

func TestExportCommandExists(t *testing.T) {
	if exportCmd == nil {
		t.Fatal("exportCmd is nil")
	}
	if exportCmd.Use != "export" {
		t.Errorf("exportCmd.Use = %q, want %q", exportCmd.Use, "export")
	}
	if exportCmd.Flags().Lookup("format") == nil {
		t.Error("export command is missing the --format flag")
	}
	if exportCmd.Flags().Lookup("preset") == nil {
		t.Error("export command is missing the --preset flag")
	}
}
