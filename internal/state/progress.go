package state

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const clearLine = "\033[2K"

// Progress shows a single self-overwriting status line, such as
// "... Running -t direct ... ...", on a terminal stream.
type Progress struct {
	mu           sync.Mutex
	out          io.Writer
	enabled      bool
	minRenderGap time.Duration
	lastRender   time.Time
	dirty        bool
}

// NewProgress creates a Progress writing to stderr.
func NewProgress(enabled bool) *Progress {
	return &Progress{
		out:          os.Stderr,
		enabled:      enabled,
		minRenderGap: 50 * time.Millisecond,
	}
}

// SetOutput redirects the status line.
func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// Update redraws the status line for the configuration being run.
// done and total count configurations across the whole run.
func (p *Progress) Update(compiler, params string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}
	if time.Since(p.lastRender) < p.minRenderGap {
		return
	}
	p.lastRender = time.Now()

	fmt.Fprintf(p.out, "%s... Running %s %s ... [%d/%d]\r", clearLine, compiler, params, done, total)
	p.dirty = true
}

// Clear erases the status line so regular output starts on a clean line.
func (p *Progress) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty {
		return
	}
	fmt.Fprint(p.out, clearLine+"\r")
	p.dirty = false
}
