package export

import (
	"context"
	"io"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/dataset/encoding"
	"mercator-hq/europa/pkg/export/destination"
)

// artifact tracks the output side of one run: the staged write target, the
// optional zip bundle around it, and the encode session streaming into it.
// Staging is lazy so runs that fail validation or match nothing tabular
// never touch the destination.
type artifact struct {
	dest   destination.Destination
	enc    encoding.Encoder
	bundle bool
	stem   string

	target  destination.WriteTarget
	zip     *destination.Bundle
	session encoding.Session
	staged  bool
}

func newArtifact(dest destination.Destination, enc encoding.Encoder, req *Request, runID string) *artifact {
	return &artifact{
		dest:   dest,
		enc:    enc,
		bundle: req.Bundle,
		stem:   req.artifactStem(runID),
	}
}

func (a *artifact) dataName() string {
	return a.stem + "." + a.enc.Format().Extension()
}

// stage opens the write target, wrapping it in a zip bundle when
// requested.
func (a *artifact) stage(ctx context.Context) error {
	if a.staged {
		return nil
	}
	if a.bundle {
		target, err := a.dest.OpenWriteTarget(ctx, a.stem+".zip")
		if err != nil {
			return err
		}
		zb, err := destination.NewBundle(target, a.dataName())
		if err != nil {
			target.Discard()
			return err
		}
		a.target = target
		a.zip = zb
	} else {
		target, err := a.dest.OpenWriteTarget(ctx, a.dataName())
		if err != nil {
			return err
		}
		a.target = target
	}
	a.staged = true
	return nil
}

func (a *artifact) writer() io.Writer {
	if a.zip != nil {
		return a.zip
	}
	return a.target
}

// openSession stages the target and starts the encode session.
func (a *artifact) openSession(ctx context.Context, schema *dataset.Schema) error {
	if err := a.stage(ctx); err != nil {
		return err
	}
	session, err := a.enc.Open(a.writer(), schema)
	if err != nil {
		return err
	}
	a.session = session
	return nil
}

func (a *artifact) opened() bool {
	return a.session != nil
}

func (a *artifact) writeBatch(entries []dataset.Entry) error {
	return a.session.WriteBatch(entries)
}

// commit finalizes the session and makes the artifact visible, returning
// its location. Runs that never opened a session commit an empty
// artifact. The manifest is written only when bundling.
func (a *artifact) commit(ctx context.Context, m *destination.Manifest) (string, error) {
	if a.session != nil {
		err := a.session.Close()
		a.session = nil
		if err != nil {
			return "", err
		}
	}
	if !a.staged {
		if err := a.stage(ctx); err != nil {
			return "", err
		}
	}
	if a.zip != nil {
		return a.zip.Close(ctx, m)
	}
	return a.target.Commit(ctx)
}

// discard drops everything staged so far. The encode session is abandoned
// rather than closed: its finalization bytes would only land in the
// discarded target. Safe to call when nothing was staged and after a
// successful commit.
func (a *artifact) discard() {
	a.session = nil
	if a.zip != nil {
		a.zip.Discard()
		a.zip = nil
		a.target = nil
		return
	}
	if a.target != nil {
		a.target.Discard()
		a.target = nil
	}
}
