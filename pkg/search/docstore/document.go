package docstore

import (
	"time"

	"github.com/google/uuid"

	"mercator-hq/europa/pkg/dataset"
)

// Storage scopes a document can be filed under. Query owner scopes such as
// "visible" expand to combinations of these at search time.
const (
	ScopePublic  = "public"
	ScopeShared  = "shared"
	ScopePrivate = "private"
	ScopeStaging = "staging"
)

// ValidScope reports whether s is a recognized storage scope.
func ValidScope(s string) bool {
	switch s {
	case ScopePublic, ScopeShared, ScopePrivate, ScopeStaging:
		return true
	}
	return false
}

// Document is a stored search entry together with its ownership metadata.
// Fields holds the entry payload that search results return; the store
// mirrors the document ID into the payload under the "id" key so exported
// rows always carry it.
type Document struct {
	ID         string        `json:"id"`
	OwnerScope string        `json:"owner_scope"`
	OwnerUser  string        `json:"owner_user"`
	UploadedAt time.Time     `json:"uploaded_at"`
	Fields     dataset.Entry `json:"fields"`
}

// normalize fills generated and derived document fields before storage.
func (d *Document) normalize(now time.Time) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.OwnerScope == "" {
		d.OwnerScope = ScopePrivate
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = now
	}
	if d.Fields == nil {
		d.Fields = dataset.Entry{}
	}
	d.Fields["id"] = d.ID
}
