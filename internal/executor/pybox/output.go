package pybox

import (
	"fmt"
	"strings"
	"sync"
)

// limitWriter accumulates interpreter output up to a character budget.
// The first write past the budget trims to the budget and invokes the
// kill callback once, abandoning the run.
type limitWriter struct {
	mu        sync.Mutex
	buf       strings.Builder
	max       int
	truncated bool
	kill      func()
}

func newLimitWriter(maxChars int, kill func()) *limitWriter {
	return &limitWriter{max: maxChars, kill: kill}
}

func (w *limitWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.truncated {
		return len(p), nil
	}
	w.buf.Write(p)
	if w.buf.Len() > w.max {
		w.truncated = true
		if w.kill != nil {
			w.kill()
		}
	}
	return len(p), nil
}

// String returns the accumulated output, trimmed to the budget when the
// run was truncated.
func (w *limitWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.buf.String()
	if w.truncated && len(s) > w.max {
		return s[:w.max]
	}
	return s
}

// Truncated reports whether the budget was breached.
func (w *limitWriter) Truncated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.truncated
}

// pythonError trims a CPython traceback down to its final message line,
// which is the part a learner can act on. Unrecognized text passes
// through verbatim.
func pythonError(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return "Runtime error"
	}
	if !strings.Contains(trimmed, "Traceback (most recent call last)") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	line := tracebackLine(lines)
	if line > 0 {
		return fmt.Sprintf("Line %d: %s", line, last)
	}
	return last
}

func tracebackLine(lines []string) int {
	// The deepest `File "<string>", line N` frame points at user code.
	for i := len(lines) - 1; i >= 0; i-- {
		s := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(s, `File "<string>", line `) {
			continue
		}
		rest := strings.TrimPrefix(s, `File "<string>", line `)
		n := 0
		for _, c := range rest {
			if c < '0' || c > '9' {
				break
			}
			n = n*10 + int(c-'0')
		}
		return n
	}
	return 0
}
