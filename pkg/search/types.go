package search

import (
	"context"

	"mercator-hq/europa/pkg/dataset"
)

// Owner visibility scopes a query may carry.
const (
	OwnerPublic  = "public"
	OwnerVisible = "visible"
	OwnerShared  = "shared"
	OwnerUser    = "user"
	OwnerStaging = "staging"
	OwnerAll     = "all"
)

// ValidOwner reports whether s names a known visibility scope.
func ValidOwner(s string) bool {
	switch s {
	case OwnerPublic, OwnerVisible, OwnerShared, OwnerUser, OwnerStaging, OwnerAll:
		return true
	default:
		return false
	}
}

// Query describes the entries an export run should drain.
type Query struct {
	// Owner is the visibility scope. Empty means OwnerVisible.
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`

	// User is the requesting user, consulted by owner scopes that depend
	// on identity (user, shared, visible).
	User string `json:"user,omitempty" yaml:"user,omitempty"`

	// Filters are exact-match constraints on entry fields.
	Filters map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`

	// Text is an optional free-text needle matched against string fields.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Validate rejects malformed queries before any page is fetched.
func (q *Query) Validate() error {
	if q == nil {
		return NewInvalidQueryError("query is nil")
	}
	if q.Owner != "" && !ValidOwner(q.Owner) {
		return NewInvalidQueryError("unknown owner scope " + q.Owner)
	}
	for field := range q.Filters {
		if field == "" {
			return NewInvalidQueryError("filter with empty field name")
		}
	}
	return nil
}

// EffectiveOwner returns the owner scope with the default applied.
func (q *Query) EffectiveOwner() string {
	if q.Owner == "" {
		return OwnerVisible
	}
	return q.Owner
}

// Page is one backend response.
type Page struct {
	// Entries holds the page's hits in backend order.
	Entries []dataset.Entry

	// NextCursor links to the following page; empty means exhausted.
	NextCursor string

	// Total is the backend-reported number of matching entries, or -1
	// when the backend cannot tell.
	Total int64
}

// Backend is the search collaborator an export run drains entries from.
type Backend interface {
	// Search returns one page of matching entries in a stable total
	// order. An empty cursor requests the first page.
	Search(ctx context.Context, q *Query, cursor string, limit int) (*Page, error)

	// Close releases backend resources.
	Close() error
}
