package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/search"
)

// store is the surface shared by both backends, so the semantics tests
// below run against each of them.
type store interface {
	Put(ctx context.Context, doc *Document) error
	PutBatch(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, q *search.Query, cursor string, limit int) (*search.Page, error)
	Count(ctx context.Context, q *search.Query) (int64, error)
	Close() error
}

var backends = []struct {
	name string
	open func(t *testing.T) store
}{
	{
		name: "sqlite",
		open: func(t *testing.T) store {
			t.Helper()
			s, err := OpenSQLite(SQLiteOptions{Path: filepath.Join(t.TempDir(), "docs.db")})
			if err != nil {
				t.Fatalf("OpenSQLite() error = %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	},
	{
		name: "memory",
		open: func(t *testing.T) store {
			t.Helper()
			return NewMemoryStore()
		},
	},
}

// seedCorpus loads a mixed-ownership corpus: even-numbered documents are
// public, the rest split between alice's private documents, bob's shared
// documents, and alice's staging documents.
func seedCorpus(t *testing.T, s store, n int) {
	t.Helper()
	docs := make([]*Document, 0, n)
	for i := 0; i < n; i++ {
		doc := &Document{
			ID: fmt.Sprintf("doc-%03d", i),
			Fields: dataset.Entry{
				"element":     []string{"Si", "O"}[i%2],
				"temperature": float64(250 + i),
			},
		}
		switch {
		case i%2 == 0:
			doc.OwnerScope = ScopePublic
			doc.OwnerUser = "carol"
		case i%4 == 1:
			doc.OwnerScope = ScopePrivate
			doc.OwnerUser = "alice"
		case i%8 == 3:
			doc.OwnerScope = ScopeShared
			doc.OwnerUser = "bob"
		default:
			doc.OwnerScope = ScopeStaging
			doc.OwnerUser = "alice"
		}
		docs = append(docs, doc)
	}
	if err := s.PutBatch(context.Background(), docs); err != nil {
		t.Fatalf("PutBatch() error = %v", err)
	}
}

func drain(t *testing.T, s store, q *search.Query, limit int) ([]dataset.Entry, int64) {
	t.Helper()
	var (
		entries []dataset.Entry
		total   int64
		cursor  string
	)
	for {
		page, err := s.Search(context.Background(), q, cursor, limit)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if cursor == "" {
			total = page.Total
		} else if page.Total != -1 {
			t.Errorf("Search() total on later page = %d, want -1", page.Total)
		}
		entries = append(entries, page.Entries...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return entries, total
}

func TestSearch_DrainsAllPagesInOrder(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			seedCorpus(t, s, 25)

			entries, total := drain(t, s, &search.Query{Owner: search.OwnerAll}, 10)
			if len(entries) != 25 {
				t.Fatalf("drained %d entries, want 25", len(entries))
			}
			if total != 25 {
				t.Errorf("first page total = %d, want 25", total)
			}

			seen := make(map[string]bool)
			prev := ""
			for _, e := range entries {
				id, _ := e["id"].(string)
				if seen[id] {
					t.Fatalf("entry %q appeared on more than one page", id)
				}
				seen[id] = true
				if id <= prev {
					t.Fatalf("entries out of order: %q after %q", id, prev)
				}
				prev = id
			}
		})
	}
}

func TestSearch_OwnerScopes(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			seedCorpus(t, s, 16)

			// Corpus layout for n=16: 8 public (even IDs), 4 private
			// alice (i%4==1), 2 shared bob (i%8==3), 2 staging alice.
			cases := []struct {
				name string
				q    *search.Query
				want int64
			}{
				{"public", &search.Query{Owner: search.OwnerPublic}, 8},
				{"visible alice", &search.Query{Owner: search.OwnerVisible, User: "alice"}, 14},
				{"shared bob", &search.Query{Owner: search.OwnerShared, User: "bob"}, 2},
				{"user alice", &search.Query{Owner: search.OwnerUser, User: "alice"}, 6},
				{"staging alice", &search.Query{Owner: search.OwnerStaging, User: "alice"}, 2},
				{"all", &search.Query{Owner: search.OwnerAll}, 16},
			}
			for _, tc := range cases {
				got, err := s.Count(context.Background(), tc.q)
				if err != nil {
					t.Fatalf("%s: Count() error = %v", tc.name, err)
				}
				if got != tc.want {
					t.Errorf("%s: Count() = %d, want %d", tc.name, got, tc.want)
				}
			}
		})
	}
}

func TestSearch_FieldFilters(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			seedCorpus(t, s, 10)

			q := &search.Query{
				Owner:   search.OwnerAll,
				Filters: map[string]any{"element": "Si"},
			}
			entries, total := drain(t, s, q, 100)
			if total != 5 || len(entries) != 5 {
				t.Fatalf("element filter matched %d (total %d), want 5", len(entries), total)
			}
			for _, e := range entries {
				if e["element"] != "Si" {
					t.Errorf("filtered entry has element %v", e["element"])
				}
			}

			q = &search.Query{
				Owner:   search.OwnerAll,
				Filters: map[string]any{"temperature": 253},
			}
			entries, _ = drain(t, s, q, 100)
			if len(entries) != 1 {
				t.Fatalf("temperature filter matched %d entries, want 1", len(entries))
			}
			if id := entries[0]["id"]; id != "doc-003" {
				t.Errorf("temperature filter matched %v, want doc-003", id)
			}
		})
	}
}

func TestSearch_TextTerm(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			if err := s.Put(context.Background(), &Document{
				ID:         "needle",
				OwnerScope: ScopePublic,
				Fields:     dataset.Entry{"comment": "perovskite reference run"},
			}); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			seedCorpus(t, s, 5)

			entries, _ := drain(t, s, &search.Query{Owner: search.OwnerAll, Text: "perovskite"}, 10)
			if len(entries) != 1 {
				t.Fatalf("text search matched %d entries, want 1", len(entries))
			}
			if entries[0]["id"] != "needle" {
				t.Errorf("text search matched %v, want needle", entries[0]["id"])
			}
		})
	}
}

func TestSearch_MalformedCursor(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			_, err := s.Search(context.Background(), &search.Query{Owner: search.OwnerAll}, "not-base64!!", 10)
			if !search.IsInvalidQuery(err) {
				t.Fatalf("Search() with bad cursor error = %v, want invalid query", err)
			}
		})
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			page, err := s.Search(context.Background(), &search.Query{Owner: search.OwnerAll}, "", 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(page.Entries) != 0 || page.NextCursor != "" || page.Total != 0 {
				t.Errorf("empty store page = %+v, want no entries, no cursor, total 0", page)
			}
		})
	}
}

func TestPut_AssignsIDAndMirrorsIt(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			doc := &Document{OwnerScope: ScopePublic, Fields: dataset.Entry{"element": "Fe"}}
			if err := s.Put(context.Background(), doc); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if doc.ID == "" {
				t.Fatal("Put() left document ID empty")
			}
			if doc.Fields["id"] != doc.ID {
				t.Errorf("payload id = %v, want %q", doc.Fields["id"], doc.ID)
			}

			entries, _ := drain(t, s, &search.Query{Owner: search.OwnerAll}, 10)
			if len(entries) != 1 || entries[0]["id"] != doc.ID {
				t.Errorf("stored entry = %v, want id %q", entries, doc.ID)
			}
		})
	}
}

func TestPut_RejectsUnknownScope(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			s := be.open(t)
			err := s.Put(context.Background(), &Document{OwnerScope: "bogus"})
			if err == nil {
				t.Fatal("Put() with unknown scope succeeded, want error")
			}
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")

	s, err := OpenSQLite(SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	seedCorpus(t, s, 8)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenSQLite(SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error = %v", err)
	}
	defer reopened.Close()

	total, err := reopened.Count(context.Background(), &search.Query{Owner: search.OwnerAll})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 8 {
		t.Errorf("Count() after reopen = %d, want 8", total)
	}
}

func TestSQLite_PutReplacesExisting(t *testing.T) {
	s, err := OpenSQLite(SQLiteOptions{Path: filepath.Join(t.TempDir(), "docs.db")})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	doc := &Document{ID: "doc-1", OwnerScope: ScopePublic, Fields: dataset.Entry{"rev": float64(1)}}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	doc.Fields["rev"] = float64(2)
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() rewrite error = %v", err)
	}

	entries, total := drain(t, s, &search.Query{Owner: search.OwnerAll}, 10)
	if total != 1 {
		t.Fatalf("Count after rewrite = %d, want 1", total)
	}
	if entries[0]["rev"] != float64(2) {
		t.Errorf("rev = %v, want 2", entries[0]["rev"])
	}
}
