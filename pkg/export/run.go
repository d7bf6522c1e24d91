package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/dataset/encoding"
	"mercator-hq/europa/pkg/search"
)

// Request describes one export: what to search for, which fields to keep,
// and how to encode the artifact.
type Request struct {
	// Query selects the entries to export.
	Query *search.Query `json:"query" yaml:"query"`

	// Projection narrows each entry to the requested fields.
	Projection dataset.Projection `json:"projection" yaml:"projection"`

	// Format is the artifact encoding: csv, parquet, or json.
	Format encoding.Format `json:"format" yaml:"format"`

	// FileName overrides the artifact file name. Optional; the run ID
	// names the artifact when empty.
	FileName string `json:"file_name,omitempty" yaml:"file_name,omitempty"`

	// Bundle wraps the artifact in a zip archive with a run manifest.
	Bundle bool `json:"bundle,omitempty" yaml:"bundle,omitempty"`

	// MaxEntries tightens the configured entry cap for this run.
	MaxEntries int64 `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`

	// PageSize overrides the configured search page size for this run.
	PageSize int `json:"page_size,omitempty" yaml:"page_size,omitempty"`

	// CSVNoHeader omits the header row from CSV artifacts.
	CSVNoHeader bool `json:"csv_no_header,omitempty" yaml:"csv_no_header,omitempty"`

	// JSONPretty indents JSON artifacts for human consumption.
	JSONPretty bool `json:"json_pretty,omitempty" yaml:"json_pretty,omitempty"`
}

// Validate checks the request against the typed error taxonomy.
func (r *Request) Validate() error {
	if r.Query == nil {
		return search.NewInvalidQueryError("query is required")
	}
	if err := r.Query.Validate(); err != nil {
		return err
	}
	if err := r.Projection.Validate(); err != nil {
		return err
	}
	if _, err := encoding.ParseFormat(string(r.Format)); err != nil {
		return err
	}
	return nil
}

// artifactStem returns the artifact file name without extension.
func (r *Request) artifactStem(runID string) string {
	if r.FileName != "" {
		return strings.TrimSuffix(r.FileName, filepath.Ext(r.FileName))
	}
	return "export-" + runID
}

// State is a run lifecycle state.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// ValidState reports whether s is a recognized run state.
func ValidState(s State) bool {
	switch s {
	case StatePending, StateRunning, StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Run is the persistent record of one export.
type Run struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	Request     *Request  `json:"request"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// EntriesExported counts entries written so far, and finally the
	// artifact's row count.
	EntriesExported int64 `json:"entries_exported"`

	// EntriesAvailable is the backend-reported match count, when known.
	EntriesAvailable int64 `json:"entries_available"`

	// Truncated marks a run that hit the entry cap.
	Truncated bool `json:"truncated"`

	// ErrorKind and ErrorMessage describe the failure of a failed run.
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`

	// Location is the committed artifact path of a succeeded run.
	Location string `json:"location,omitempty"`
}

// NewRun creates a pending run for the request with a fresh ID.
func NewRun(req *Request) *Run {
	return &Run{
		ID:        uuid.New().String(),
		State:     StatePending,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}
}

// Transition moves the run to a new state, enforcing the monotonic
// lifecycle. Terminal states are frozen; any transition out of them is an
// error.
func (r *Run) Transition(to State) error {
	if !ValidState(to) {
		return fmt.Errorf("run %s: unknown state %q", r.ID, to)
	}
	if !transitionAllowed(r.State, to) {
		return fmt.Errorf("run %s: illegal transition %s -> %s", r.ID, r.State, to)
	}

	now := time.Now().UTC()
	switch to {
	case StateRunning:
		r.StartedAt = now
	case StateSucceeded, StateFailed, StateCancelled:
		r.CompletedAt = now
	}
	r.State = to
	return nil
}

func transitionAllowed(from, to State) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateCancelled
	case StateRunning:
		return to.Terminal()
	default:
		return false
	}
}

// Snapshot returns a copy of the run safe to hand to other goroutines.
// The request pointer is shared; requests are immutable after submission.
func (r *Run) Snapshot() Run {
	return *r
}
