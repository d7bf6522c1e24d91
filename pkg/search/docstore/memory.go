package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/search"
)

// MemoryStore is an in-memory search backend with the same pagination and
// scope semantics as SQLiteStore. Intended for tests and example setups.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore returns an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

// Put stores a single document, replacing any existing document with the
// same ID.
func (m *MemoryStore) Put(_ context.Context, doc *Document) error {
	doc.normalize(time.Now().UTC())
	if !ValidScope(doc.OwnerScope) {
		return fmt.Errorf("docstore: invalid owner scope %q", doc.OwnerScope)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

// PutBatch stores documents one by one.
func (m *MemoryStore) PutBatch(ctx context.Context, docs []*Document) error {
	for _, doc := range docs {
		if err := m.Put(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Search returns one page of matching documents ordered by ID.
func (m *MemoryStore) Search(_ context.Context, q *search.Query, cursor string, limit int) (*search.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched := make([]*Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if matchesQuery(doc, q) {
			matched = append(matched, doc)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(-1)
	if cursor == "" {
		total = int64(len(matched))
	}

	start := 0
	if afterID != "" {
		start = sort.Search(len(matched), func(i int) bool { return matched[i].ID > afterID })
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	entries := make([]dataset.Entry, 0, end-start)
	for _, doc := range matched[start:end] {
		entries = append(entries, doc.Fields.Clone())
	}

	page := &search.Page{Entries: entries, Total: total}
	if end < len(matched) {
		page.NextCursor = encodeCursor(matched[end-1].ID)
	}
	return page, nil
}

// Count returns the number of documents matching q.
func (m *MemoryStore) Count(_ context.Context, q *search.Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, doc := range m.docs {
		if matchesQuery(doc, q) {
			total++
		}
	}
	return total, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

func matchesQuery(doc *Document, q *search.Query) bool {
	switch q.EffectiveOwner() {
	case search.OwnerPublic:
		if doc.OwnerScope != ScopePublic {
			return false
		}
	case search.OwnerVisible:
		if doc.OwnerScope != ScopePublic && doc.OwnerUser != q.User {
			return false
		}
	case search.OwnerShared:
		if doc.OwnerScope != ScopeShared && doc.OwnerUser != q.User {
			return false
		}
	case search.OwnerUser:
		if doc.OwnerUser != q.User {
			return false
		}
	case search.OwnerStaging:
		if doc.OwnerScope != ScopeStaging || doc.OwnerUser != q.User {
			return false
		}
	case search.OwnerAll:
		// No visibility constraint.
	default:
		return false
	}

	for field, want := range q.Filters {
		got, ok := doc.Fields[field]
		if !ok || !filterEqual(got, want) {
			return false
		}
	}

	if q.Text != "" {
		payload, err := json.Marshal(doc.Fields)
		if err != nil || !strings.Contains(string(payload), q.Text) {
			return false
		}
	}
	return true
}

// filterEqual compares a stored value against a filter value, widening
// numbers so int filters match float64 payload values and vice versa.
func filterEqual(got, want any) bool {
	if gf, ok := asFloat(got); ok {
		if wf, ok := asFloat(want); ok {
			return gf == wf
		}
		return false
	}
	return got == want
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
