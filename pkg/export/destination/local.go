package destination

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Local writes artifacts into a directory on the local filesystem.
//
// Each target is staged as a hidden temporary file in the artifact
// directory and renamed into place on commit, after an fsync, so a crash
// mid-export leaves at most a stray temp file and never a truncated
// artifact.
type Local struct {
	root   string
	logger *slog.Logger
}

// NewLocal creates the artifact directory if needed and returns a
// destination rooted there.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("destination: artifact directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("destination: create artifact directory: %w", err)
	}
	return &Local{
		root:   root,
		logger: slog.Default().With("component", "destination.local"),
	}, nil
}

// Root returns the artifact directory.
func (d *Local) Root() string {
	return d.root
}

// OpenWriteTarget stages a temporary file for the named artifact.
func (d *Local) OpenWriteTarget(_ context.Context, name string) (WriteTarget, error) {
	if err := validateName(name); err != nil {
		return nil, NewWriteError("local", name, err)
	}

	tmp, err := os.CreateTemp(d.root, ".europa-*.tmp")
	if err != nil {
		return nil, NewWriteError("local", name, err)
	}

	return &localTarget{
		dest: d,
		name: name,
		file: tmp,
	}, nil
}

// validateName rejects names that would escape the artifact directory.
func validateName(name string) error {
	if name == "" {
		return errors.New("artifact name is empty")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("artifact name %q contains path elements", name)
	}
	return nil
}

type localTarget struct {
	dest *Local
	name string

	mu        sync.Mutex
	file      *os.File
	committed bool
	location  string
}

// Write appends to the staged file.
func (t *localTarget) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return 0, NewWriteError("local", t.name, errors.New("target already closed"))
	}
	n, err := t.file.Write(p)
	if err != nil {
		return n, NewWriteError("local", t.name, err)
	}
	return n, nil
}

// Commit syncs the staged file and renames it to a free final name,
// appending " (n)" before the extension when the preferred name is taken.
func (t *localTarget) Commit(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committed {
		return t.location, nil
	}
	if t.file == nil {
		return "", NewWriteError("local", t.name, errors.New("target already discarded"))
	}

	tmpPath := t.file.Name()
	if err := t.file.Sync(); err != nil {
		t.file.Close()
		os.Remove(tmpPath)
		t.file = nil
		return "", NewWriteError("local", t.name, err)
	}
	if err := t.file.Close(); err != nil {
		os.Remove(tmpPath)
		t.file = nil
		return "", NewWriteError("local", t.name, err)
	}
	t.file = nil

	final, err := t.claimFinalPath()
	if err != nil {
		os.Remove(tmpPath)
		return "", NewWriteError("local", t.name, err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		os.Remove(final)
		return "", NewWriteError("local", t.name, err)
	}

	t.committed = true
	t.location = final
	t.dest.logger.Debug("committed artifact", "path", final)
	return final, nil
}

// claimFinalPath reserves the first free collision-suffixed name by
// creating it exclusively. The reservation is immediately replaced by the
// rename in Commit.
func (t *localTarget) claimFinalPath() (string, error) {
	base, ext := splitName(t.name)
	for n := 0; ; n++ {
		name := t.name
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
		final := filepath.Join(t.dest.root, name)
		f, err := os.OpenFile(final, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", err
		}
		f.Close()
		return final, nil
	}
}

// splitName separates a file name into its stem and extension, keeping
// compound artifact extensions like ".csv" intact.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// Discard removes the staged file. Calling it after Commit is a no-op.
func (t *localTarget) Discard() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committed || t.file == nil {
		return nil
	}
	tmpPath := t.file.Name()
	closeErr := t.file.Close()
	removeErr := os.Remove(tmpPath)
	t.file = nil
	if closeErr != nil {
		return NewWriteError("local", t.name, closeErr)
	}
	if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
		return NewWriteError("local", t.name, removeErr)
	}
	return nil
}
