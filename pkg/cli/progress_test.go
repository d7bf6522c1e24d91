package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestProgress_RendersBarAndRate(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(5000)
	progress.Update(2500)
	progress.Finish()

	out := buf.String()
	if !strings.Contains(out, "Progress:") {
		t.Errorf("output missing bar prefix: %q", out)
	}
	if !strings.Contains(out, "(2500/5000 rows)") {
		t.Errorf("output missing row counts: %q", out)
	}
	if !strings.Contains(out, "rows/s") {
		t.Errorf("output missing rate: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should terminate the bar line")
	}
}

func TestProgress_FinishPinsFull(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(300)
	progress.Update(120)
	progress.Finish()

	if !strings.Contains(buf.String(), "(300/300 rows)") {
		t.Errorf("Finish did not pin the count at total: %q", buf.String())
	}
}

func TestProgress_ZeroTotalRendersNothing(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Update(10)
	progress.Finish()

	if out := strings.TrimSpace(buf.String()); out != "" {
		t.Errorf("zero-total run produced output: %q", out)
	}
}

func TestProgress_OvershootClampsAtFull(t *testing.T) {
	// Seeding in fixed-size chunks can report past the total on the last
	// chunk; the bar must not exceed its width.
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(10)
	progress.Update(13)
	progress.Finish()

	if strings.Count(buf.String(), "█") > 2*barWidth+barWidth {
		t.Errorf("bar overflowed its width: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "100.0%") {
		t.Errorf("overshoot should clamp at 100%%: %q", buf.String())
	}
}

func TestProgress_ErrorBreaksTheLine(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Error(errors.New("document store unreachable"))

	out := buf.String()
	if !strings.Contains(out, "Error: document store unreachable") {
		t.Errorf("error not reported: %q", out)
	}
	if !strings.Contains(out, "\n✗") {
		t.Errorf("error should start on its own line: %q", out)
	}
}

func TestProgress_ConcurrentUpdates(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(1000)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < 100; j++ {
				progress.Update(base*100 + j)
			}
		}(int64(i))
	}
	wg.Wait()
	progress.Finish()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestNewProgressReporter_NilWriterDefaultsToStdout(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Fatal("NewProgressReporter(nil) = nil")
	}
	// Must not panic when the default writer is in play.
	progress.Start(0)
	progress.Update(0)
	progress.Finish()
}
