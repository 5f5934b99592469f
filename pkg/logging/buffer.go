package logging

import (
	"strings"
	"sync"
)

// captureDepth is how many lines each global capture retains.
const captureDepth = 16

// LineRing keeps the most recent lines written to it. Safe for concurrent use.
type LineRing struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// NewLineRing returns a ring holding up to depth lines (minimum 1).
func NewLineRing(depth int) *LineRing {
	if depth < 1 {
		depth = 1
	}
	return &LineRing{lines: make([]string, depth)}
}

var (
	// GlobalLogCapture mirrors the server log.
	GlobalLogCapture = NewLineRing(captureDepth)
	// GlobalEventCapture mirrors the tracking event log.
	GlobalEventCapture = NewLineRing(captureDepth)
)

// Write implements io.Writer. A slog handler emits one record per call, so
// each call is stored as one line.
func (r *LineRing) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	r.mu.Lock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
	return len(p), nil
}

// Last returns the most recent line, or "" if nothing was written.
func (r *LineRing) Last() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.full && r.next == 0 {
		return ""
	}
	return r.lines[(r.next-1+len(r.lines))%len(r.lines)]
}

// Recent returns up to n lines, oldest first.
func (r *LineRing) Recent(n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	size := r.next
	if r.full {
		size = len(r.lines)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]string, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, r.lines[(r.next-i+len(r.lines))%len(r.lines)])
	}
	return out
}
