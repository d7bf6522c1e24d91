package destination

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ManifestName is the name of the run description file inside a bundle.
const ManifestName = "manifest.json"

// Manifest describes the run that produced a bundled artifact. It is
// written as the last entry of the bundle, once the final counts are
// known.
type Manifest struct {
	RunID            string    `json:"run_id"`
	Generator        string    `json:"generator,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Format           string    `json:"format"`
	Query            any       `json:"query,omitempty"`
	EntriesExported  int64     `json:"entries_exported"`
	EntriesAvailable int64     `json:"entries_available"`
	Truncated        bool      `json:"truncated"`
}

// Bundle streams an artifact payload into a zip archive on top of a write
// target. The archive holds the data file plus manifest.json.
type Bundle struct {
	target   WriteTarget
	zw       *zip.Writer
	data     io.Writer
	dataName string
	closed   bool
}

// NewBundle wraps target in a zip archive and opens the data entry. The
// target should have been staged under a .zip file name.
func NewBundle(target WriteTarget, dataName string) (*Bundle, error) {
	if err := validateName(dataName); err != nil {
		return nil, NewWriteError("bundle", dataName, err)
	}
	zw := zip.NewWriter(target)
	data, err := zw.Create(dataName)
	if err != nil {
		return nil, NewWriteError("bundle", dataName, err)
	}
	return &Bundle{
		target:   target,
		zw:       zw,
		data:     data,
		dataName: dataName,
	}, nil
}

// Write appends payload bytes to the bundled data file.
func (b *Bundle) Write(p []byte) (int, error) {
	if b.closed {
		return 0, NewWriteError("bundle", b.dataName, errors.New("bundle already closed"))
	}
	return b.data.Write(p)
}

// Close writes the manifest, finalizes the archive, and commits the
// underlying target, returning the artifact location.
func (b *Bundle) Close(ctx context.Context, m *Manifest) (string, error) {
	if b.closed {
		return "", NewWriteError("bundle", b.dataName, errors.New("bundle already closed"))
	}
	b.closed = true

	mw, err := b.zw.Create(ManifestName)
	if err != nil {
		return "", NewWriteError("bundle", b.dataName, err)
	}
	encoded, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("destination: encode manifest: %w", err)
	}
	if _, err := mw.Write(append(encoded, '\n')); err != nil {
		return "", NewWriteError("bundle", b.dataName, err)
	}
	if err := b.zw.Close(); err != nil {
		return "", NewWriteError("bundle", b.dataName, err)
	}
	return b.target.Commit(ctx)
}

// Discard abandons the archive and the underlying target.
func (b *Bundle) Discard() error {
	b.closed = true
	return b.target.Discard()
}
