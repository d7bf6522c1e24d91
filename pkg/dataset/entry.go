package dataset

import "sort"

// Entry is a single search hit: field name to value, as returned by the
// search backend. Values are the JSON-shaped types produced by decoding a
// stored document (string, float64, int64, bool, nil, map[string]any,
// []any).
type Entry map[string]any

// Fields returns the entry's field names in lexical order.
func (e Entry) Fields() []string {
	fields := make([]string, 0, len(e))
	for name := range e {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Has reports whether the entry carries the named field.
func (e Entry) Has(name string) bool {
	_, ok := e[name]
	return ok
}

// Clone returns a shallow copy of the entry. Nested values are shared.
func (e Entry) Clone() Entry {
	if e == nil {
		return nil
	}
	out := make(Entry, len(e))
	for name, value := range e {
		out[name] = value
	}
	return out
}
