package encoding

import (
	"encoding/json"
	"fmt"
	"io"

	"mercator-hq/europa/pkg/dataset"
)

// JSONEncoder produces a single JSON array of entry objects. Entries are
// streamed element by element, so arbitrarily large result sets export in
// constant memory. Heterogeneous field sets are allowed.
type JSONEncoder struct {
	// Pretty indents output with two spaces per level.
	Pretty bool
}

// NewJSONEncoder creates a JSON encoder.
func NewJSONEncoder(pretty bool) *JSONEncoder {
	return &JSONEncoder{Pretty: pretty}
}

// Format returns FormatJSON.
func (e *JSONEncoder) Format() Format {
	return FormatJSON
}

// Open starts a JSON session. The schema is ignored; JSON output carries
// whatever fields each projected entry has.
func (e *JSONEncoder) Open(w io.Writer, _ *dataset.Schema) (Session, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return nil, NewEncodeError(FormatJSON, err)
	}
	return &jsonSession{
		w:      w,
		pretty: e.Pretty,
	}, nil
}

type jsonSession struct {
	w       io.Writer
	pretty  bool
	written int64
	closed  bool
}

// WriteBatch appends the batch's entries to the array.
func (s *jsonSession) WriteBatch(entries []dataset.Entry) error {
	if s.closed {
		return NewEncodeError(FormatJSON, fmt.Errorf("write on closed session"))
	}

	for _, entry := range entries {
		var (
			data []byte
			err  error
		)
		if s.pretty {
			data, err = json.MarshalIndent(entry, "  ", "  ")
		} else {
			data, err = json.Marshal(entry)
		}
		if err != nil {
			return NewEncodeError(FormatJSON, err)
		}

		sep := ","
		if s.written == 0 {
			sep = ""
		}
		if s.pretty {
			sep += "\n  "
		}
		if _, err := io.WriteString(s.w, sep); err != nil {
			return NewEncodeError(FormatJSON, err)
		}
		if _, err := s.w.Write(data); err != nil {
			return NewEncodeError(FormatJSON, err)
		}
		s.written++
	}
	return nil
}

// Close terminates the array. A session closed with no entries written
// produces the empty array.
func (s *jsonSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	terminator := "]"
	if s.pretty && s.written > 0 {
		terminator = "\n]"
	}
	if _, err := io.WriteString(s.w, terminator); err != nil {
		return NewEncodeError(FormatJSON, err)
	}
	return nil
}
