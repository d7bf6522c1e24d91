package search

import (
	"errors"
	"fmt"
	"time"
)

// UnavailableError indicates a transient backend failure. Fetches that fail
// with it are retried with backoff inside the batch deadline.
type UnavailableError struct {
	Backend string
	Cause   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("search backend %s unavailable: %v", e.Backend, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// NewUnavailableError creates a new unavailable error.
func NewUnavailableError(backend string, cause error) *UnavailableError {
	return &UnavailableError{Backend: backend, Cause: cause}
}

// IsUnavailable reports whether err marks a retryable backend failure.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// TimeoutError indicates a batch fetch that exceeded its deadline. It is
// fatal for the run; the timed-out batch is never retried.
type TimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search batch exceeded %s deadline: %v", e.Timeout, e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(timeout time.Duration, cause error) *TimeoutError {
	return &TimeoutError{Timeout: timeout, Cause: cause}
}

// IsTimeout reports whether err marks a batch deadline violation.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// InvalidQueryError indicates a malformed query. It is fatal and surfaces
// before any page is fetched or retried.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid search query: %s", e.Reason)
}

// NewInvalidQueryError creates a new invalid query error.
func NewInvalidQueryError(reason string) *InvalidQueryError {
	return &InvalidQueryError{Reason: reason}
}

// IsInvalidQuery reports whether err marks a malformed query.
func IsInvalidQuery(err error) bool {
	var qe *InvalidQueryError
	return errors.As(err, &qe)
}
