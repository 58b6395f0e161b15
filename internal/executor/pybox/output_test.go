package pybox

import (
	"strings"
	"testing"
)

func TestLimitWriterUnderBudget(t *testing.T) {
	w := newLimitWriter(100, nil)
	if _, err := w.Write([]byte("hello ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.Truncated() {
		t.Fatal("under-budget writer must not truncate")
	}
	if w.String() != "hello world" {
		t.Fatalf("content wrong: %q", w.String())
	}
}

func TestLimitWriterKillsOnce(t *testing.T) {
	kills := 0
	w := newLimitWriter(5, func() { kills++ })

	if _, err := w.Write([]byte("123456789")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("more after the kill")); err != nil {
		t.Fatalf("post-kill write must be swallowed: %v", err)
	}

	if !w.Truncated() {
		t.Fatal("budget breach must mark truncated")
	}
	if kills != 1 {
		t.Fatalf("kill must fire exactly once, fired %d times", kills)
	}
	if w.String() != "12345" {
		t.Fatalf("output must trim to budget: %q", w.String())
	}
}

func TestPythonErrorPlainStderr(t *testing.T) {
	if got := pythonError("NameError: name 'x' is not defined"); got != "NameError: name 'x' is not defined" {
		t.Fatalf("plain stderr must pass through: %q", got)
	}
	if got := pythonError("   \n"); got != "Runtime error" {
		t.Fatalf("empty stderr fallback wrong: %q", got)
	}
}

func TestPythonErrorTracebackTrimmed(t *testing.T) {
	stderr := strings.Join([]string{
		"Traceback (most recent call last):",
		`  File "<string>", line 3, in <module>`,
		"ZeroDivisionError: division by zero",
	}, "\n")

	got := pythonError(stderr)
	if got != "Line 3: ZeroDivisionError: division by zero" {
		t.Fatalf("traceback trim wrong: %q", got)
	}
}

func TestPythonErrorDeepestFrameWins(t *testing.T) {
	stderr := strings.Join([]string{
		"Traceback (most recent call last):",
		`  File "<string>", line 9, in <module>`,
		`  File "<string>", line 2, in helper`,
		"ValueError: bad value",
	}, "\n")

	got := pythonError(stderr)
	if got != "Line 2: ValueError: bad value" {
		t.Fatalf("deepest frame must win: %q", got)
	}
}

func TestPythonErrorTracebackWithoutUserFrame(t *testing.T) {
	stderr := strings.Join([]string{
		"Traceback (most recent call last):",
		`  File "/lib/runpy.py", line 10, in run`,
		"KeyboardInterrupt",
	}, "\n")

	got := pythonError(stderr)
	if got != "KeyboardInterrupt" {
		t.Fatalf("no user frame means no line prefix: %q", got)
	}
}

func TestTracebackLine(t *testing.T) {
	lines := []string{
		"Traceback (most recent call last):",
		`  File "<string>", line 42, in <module>`,
		"SyntaxError: invalid syntax",
	}
	if got := tracebackLine(lines); got != 42 {
		t.Fatalf("line parse wrong: %d", got)
	}
	if got := tracebackLine([]string{"no frames here"}); got != 0 {
		t.Fatalf("missing frame must yield 0: %d", got)
	}
}
