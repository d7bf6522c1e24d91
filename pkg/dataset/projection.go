package dataset

// Projection narrows entries to the fields an export run should emit.
// Exactly one of Include or Exclude may be non-empty; both empty is the
// identity projection.
type Projection struct {
	// Include lists the fields to keep. Output column order follows this
	// list. A listed field missing from an entry is silently omitted;
	// tabular encoders render the omission as a null cell.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	// Exclude lists the fields to drop. The remaining fields are ordered
	// lexically in tabular output.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Validate rejects projections that set both include and exclude lists.
func (p Projection) Validate() error {
	if len(p.Include) > 0 && len(p.Exclude) > 0 {
		return NewInvalidProjectionError(p.Include, p.Exclude)
	}
	return nil
}

// IsIdentity reports whether the projection passes entries through unchanged.
func (p Projection) IsIdentity() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Apply projects a single entry. The source entry is never mutated.
//
// Include mode keeps the listed fields present in the source; a listed field
// the source lacks is omitted from the result, favoring export completion
// over strictness. Tabular encoders fill the gap with a null cell from the
// schema; JSON artifacts simply omit the key. Exclude mode drops the listed
// fields and keeps the rest.
func (p Projection) Apply(e Entry) Entry {
	if e == nil {
		return nil
	}

	if len(p.Include) > 0 {
		out := make(Entry, len(p.Include))
		for _, name := range p.Include {
			if value, ok := e[name]; ok {
				out[name] = value
			}
		}
		return out
	}

	if len(p.Exclude) > 0 {
		dropped := make(map[string]struct{}, len(p.Exclude))
		for _, name := range p.Exclude {
			dropped[name] = struct{}{}
		}
		out := make(Entry, len(e))
		for name, value := range e {
			if _, skip := dropped[name]; skip {
				continue
			}
			out[name] = value
		}
		return out
	}

	return e.Clone()
}

// ApplyAll projects a batch of entries, preserving order.
func (p Projection) ApplyAll(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = p.Apply(e)
	}
	return out
}
