package dataset

import "sort"

// Schema is the fixed column set of a tabular export, captured from the
// first non-empty projected batch and enforced on every batch after it.
type Schema struct {
	fields []string
	set    map[string]struct{}

	// allowSubset relaxes Conforms for schemas pinned by an include list:
	// entries may omit included fields the source data lacks, and the
	// encoders render those as null cells.
	allowSubset bool
}

// DeriveSchema captures the column schema from the first projected batch.
//
// When the projection carries an include list, the schema is that list in
// its given order regardless of batch contents. Otherwise the schema is the
// lexically sorted union of field names across the batch's entries.
func DeriveSchema(entries []Entry, p Projection) *Schema {
	if len(p.Include) > 0 {
		s := NewSchema(p.Include)
		s.allowSubset = true
		return s
	}

	union := make(map[string]struct{})
	for _, e := range entries {
		for name := range e {
			union[name] = struct{}{}
		}
	}
	fields := make([]string, 0, len(union))
	for name := range union {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return NewSchema(fields)
}

// NewSchema builds a schema with the given column order.
func NewSchema(fields []string) *Schema {
	s := &Schema{
		fields: append([]string(nil), fields...),
		set:    make(map[string]struct{}, len(fields)),
	}
	for _, name := range s.fields {
		s.set[name] = struct{}{}
	}
	return s
}

// Fields returns the column names in output order. The returned slice is
// shared; callers must not modify it.
func (s *Schema) Fields() []string {
	return s.fields
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Has reports whether the schema contains the named column.
func (s *Schema) Has(name string) bool {
	_, ok := s.set[name]
	return ok
}

// Conforms checks a batch against the captured schema, entry by entry, so
// field-set variation inside one batch is caught, not just variation between
// batches. batch is the 1-based ordinal used in the error.
//
// Any field outside the schema is drift. A schema derived from batch contents
// additionally requires every entry to carry the full column set; a schema
// pinned by an include list tolerates omitted fields, since the projector
// drops included fields the source data lacks.
func (s *Schema) Conforms(entries []Entry, batch int) error {
	for _, e := range entries {
		var extra []string
		for name := range e {
			if _, ok := s.set[name]; !ok {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)

		var missing []string
		if !s.allowSubset {
			for _, name := range s.fields {
				if _, ok := e[name]; !ok {
					missing = append(missing, name)
				}
			}
		}

		if len(missing) > 0 || len(extra) > 0 {
			return NewSchemaDriftError(batch, missing, extra)
		}
	}
	return nil
}
