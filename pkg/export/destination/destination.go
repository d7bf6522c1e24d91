package destination

import (
	"context"
	"fmt"
	"io"
)

// Destination stages export artifacts and makes them visible atomically.
type Destination interface {
	// OpenWriteTarget stages a new artifact that will be committed under
	// the given file name. The name must be a bare file name without path
	// separators.
	OpenWriteTarget(ctx context.Context, name string) (WriteTarget, error)
}

// WriteTarget is a staged artifact being written. Exactly one of Commit or
// Discard should conclude it; Discard after a successful Commit is a
// no-op, so deferring Discard is safe.
type WriteTarget interface {
	io.Writer

	// Commit finalizes the artifact and returns its location.
	Commit(ctx context.Context) (string, error)

	// Discard drops the staged artifact and any bytes written so far.
	Discard() error
}

// WriteError wraps a failure while staging or committing an artifact.
type WriteError struct {
	// Destination identifies the destination kind, such as "local".
	Destination string
	// Name is the artifact file name the failure relates to.
	Name string
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("destination %s: write %s: %v", e.Destination, e.Name, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// NewWriteError creates a new WriteError.
func NewWriteError(dest, name string, cause error) *WriteError {
	return &WriteError{Destination: dest, Name: name, Cause: cause}
}
