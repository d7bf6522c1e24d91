package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports row-level progress for long-running commands
// such as seeding a document store or draining an export.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// barWidth is the character width of the rendered bar.
const barWidth = 40

// rowProgress renders a single-line progress bar with a rows/s rate. It
// redraws in place with a carriage return, so it expects a terminal-like
// writer.
type rowProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter returns a reporter writing to w, or os.Stdout when
// w is nil.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stdout
	}
	return &rowProgress{writer: w}
}

// Start resets the counters and draws the empty bar. A zero or negative
// total disables rendering; Update and Finish become no-ops.
func (p *rowProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.current = 0
	p.started = time.Now()
	p.render()
}

// Update redraws the bar at the given row count.
func (p *rowProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

// Finish pins the bar at 100% and terminates the line.
func (p *rowProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 {
		return
	}
	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// Error breaks out of the bar line and prints the failure.
func (p *rowProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *rowProgress) render() {
	if p.total <= 0 {
		return
	}

	fraction := float64(p.current) / float64(p.total)
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	rate := float64(p.current) / time.Since(p.started).Seconds()
	fmt.Fprintf(p.writer, "\rProgress: [%s] %.1f%% (%d/%d rows) %.1f rows/s",
		bar, fraction*100, p.current, p.total, rate)
}
