package export

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/dataset/encoding"
	"mercator-hq/europa/pkg/export/destination"
	"mercator-hq/europa/pkg/search"
)

// RunNotFoundError reports a run ID with no stored record.
type RunNotFoundError struct {
	ID string
}

// NewRunNotFoundError creates a RunNotFoundError for the given run ID.
func NewRunNotFoundError(id string) *RunNotFoundError {
	return &RunNotFoundError{ID: id}
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %s: not found", e.ID)
}

// RunFinishedError reports a cancel request against a run that already
// reached a terminal state.
type RunFinishedError struct {
	ID    string
	State State
}

// NewRunFinishedError creates a RunFinishedError for the given run.
func NewRunFinishedError(id string, state State) *RunFinishedError {
	return &RunFinishedError{ID: id, State: state}
}

func (e *RunFinishedError) Error() string {
	return fmt.Sprintf("run %s: already %s", e.ID, e.State)
}

// ErrorKind is a stable machine-readable failure category recorded on
// failed runs and exposed through the API and CLI.
type ErrorKind string

const (
	// ErrorKindNone marks a run without a failure.
	ErrorKindNone ErrorKind = ""

	// ErrorKindSearchUnavailable is a transient search backend outage
	// that persisted through the retry budget.
	ErrorKindSearchUnavailable ErrorKind = "search_unavailable"

	// ErrorKindSearchTimeout is a batch fetch that exceeded the search
	// batch timeout.
	ErrorKindSearchTimeout ErrorKind = "search_timeout"

	// ErrorKindInvalidQuery is a malformed or unsupported search query.
	ErrorKindInvalidQuery ErrorKind = "invalid_query"

	// ErrorKindInvalidProjection is a projection naming both include and
	// exclude lists.
	ErrorKindInvalidProjection ErrorKind = "invalid_projection"

	// ErrorKindInvalidFormat is an unknown artifact format.
	ErrorKindInvalidFormat ErrorKind = "invalid_format"

	// ErrorKindSchemaDrift is a later batch whose fields diverge from the
	// schema a tabular artifact was opened with.
	ErrorKindSchemaDrift ErrorKind = "schema_drift"

	// ErrorKindDestinationWrite is a failure staging, writing, or
	// committing the artifact.
	ErrorKindDestinationWrite ErrorKind = "destination_write"

	// ErrorKindInternal is the fallback for unclassified failures.
	ErrorKindInternal ErrorKind = "internal"
)

// ClassifyError maps an error from a run's collaborators onto its kind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	var (
		driftErr      *dataset.SchemaDriftError
		projectionErr *dataset.InvalidProjectionError
		timeoutErr    *search.TimeoutError
		unavailErr    *search.UnavailableError
		queryErr      *search.InvalidQueryError
		writeErr      *destination.WriteError
		encodeErr     *encoding.EncodeError
		formatErr     *encoding.UnknownFormatError
	)
	switch {
	case errors.As(err, &driftErr):
		return ErrorKindSchemaDrift
	case errors.As(err, &timeoutErr):
		return ErrorKindSearchTimeout
	case errors.As(err, &unavailErr):
		return ErrorKindSearchUnavailable
	case errors.As(err, &queryErr):
		return ErrorKindInvalidQuery
	case errors.As(err, &projectionErr):
		return ErrorKindInvalidProjection
	case errors.As(err, &formatErr):
		return ErrorKindInvalidFormat
	case errors.As(err, &writeErr):
		return ErrorKindDestinationWrite
	case errors.As(err, &encodeErr):
		// Encode sessions write only to the destination, so an encoder
		// failure without a more specific cause is a write failure.
		return ErrorKindDestinationWrite
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindSearchTimeout
	default:
		return ErrorKindInternal
	}
}
