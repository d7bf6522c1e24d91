package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidProjectionError indicates a projection that carries both an include
// and an exclude list. The two modes are mutually exclusive and the error is
// raised before any entries are fetched.
type InvalidProjectionError struct {
	Include []string
	Exclude []string
}

func (e *InvalidProjectionError) Error() string {
	return fmt.Sprintf("invalid projection: include (%s) and exclude (%s) are mutually exclusive",
		strings.Join(e.Include, ","), strings.Join(e.Exclude, ","))
}

// NewInvalidProjectionError creates a new invalid projection error.
func NewInvalidProjectionError(include, exclude []string) *InvalidProjectionError {
	return &InvalidProjectionError{
		Include: include,
		Exclude: exclude,
	}
}

// SchemaDriftError indicates that a batch's projected field set no longer
// matches the schema captured from the first batch. Only tabular formats
// raise it; JSON output tolerates heterogeneous entries.
type SchemaDriftError struct {
	// Batch is the 1-based ordinal of the offending batch.
	Batch int

	// Missing are schema fields absent from the batch.
	Missing []string

	// Extra are batch fields absent from the schema.
	Extra []string
}

func (e *SchemaDriftError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		missing := append([]string(nil), e.Missing...)
		sort.Strings(missing)
		parts = append(parts, fmt.Sprintf("missing fields [%s]", strings.Join(missing, ",")))
	}
	if len(e.Extra) > 0 {
		extra := append([]string(nil), e.Extra...)
		sort.Strings(extra)
		parts = append(parts, fmt.Sprintf("unexpected fields [%s]", strings.Join(extra, ",")))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("schema drift in batch %d", e.Batch)
	}
	return fmt.Sprintf("schema drift in batch %d: %s", e.Batch, strings.Join(parts, ", "))
}

// NewSchemaDriftError creates a new schema drift error.
func NewSchemaDriftError(batch int, missing, extra []string) *SchemaDriftError {
	return &SchemaDriftError{
		Batch:   batch,
		Missing: missing,
		Extra:   extra,
	}
}
