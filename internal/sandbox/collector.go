package sandbox

import (
	"fmt"
	"strings"
	"time"

	"codelab/internal/execution"
)

// Outcome is the resolved result of one execute call plus the raw stack
// text of an error frame, kept for language-specific classification.
type Outcome struct {
	Result     execution.Result
	ErrorStack string
}

// Collector resolves exactly one Outcome per execution from the stream of
// sandbox messages, racing completion, error, output-limit breach and the
// deadline against each other. The first signal to arrive wins; Terminate
// is invoked for every resolution that abandons a still-running sandbox.
type Collector struct {
	Limits execution.Limits
	// Terminate force-kills the sandbox half. Must be safe to call more
	// than once.
	Terminate func()
}

// Collect consumes host-side messages until the call resolves. The returned
// Outcome is the single resolution for this execution.
func (c *Collector) Collect(recv <-chan Message, started time.Time) Outcome {
	limits := c.Limits.Normalize()
	timeout := time.Duration(limits.TimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var stdout strings.Builder
	var stderr strings.Builder

	terminate := func() {
		if c.Terminate != nil {
			c.Terminate()
		}
	}

	for {
		select {
		case <-timer.C:
			terminate()
			return Outcome{Result: execution.Result{
				Success:  false,
				Output:   stdout.String(),
				Error:    TimeoutMessage(limits.TimeoutMs),
				ExitCode: execution.ExitTimeout,
				// The limit, not wall time: a killed run consumed its
				// whole budget as far as grading is concerned.
				ExecutionTimeMs: int64(limits.TimeoutMs),
			}}

		case msg, ok := <-recv:
			if !ok {
				terminate()
				return Outcome{Result: execution.Result{
					Success:         false,
					Output:          stdout.String(),
					Error:           "Sandbox was closed during execution",
					ExitCode:        execution.ExitError,
					ExecutionTimeMs: time.Since(started).Milliseconds(),
				}}
			}

			switch msg.Type {
			case MsgStdout:
				stdout.WriteString(msg.Data)
				if stdout.Len() > limits.MaxOutputChars {
					terminate()
					truncated := stdout.String()[:limits.MaxOutputChars]
					// Truncation alone is not a failure.
					return Outcome{Result: execution.Result{
						Success:         true,
						Output:          truncated + execution.TruncationMarker,
						ExitCode:        execution.ExitOK,
						ExecutionTimeMs: time.Since(started).Milliseconds(),
					}}
				}

			case MsgStderr:
				stderr.WriteString(msg.Data)

			case MsgComplete:
				terminate()
				res := execution.Result{
					Success:         msg.ExitCode == 0,
					Output:          stdout.String(),
					ExitCode:        msg.ExitCode,
					ExecutionTimeMs: time.Since(started).Milliseconds(),
				}
				// stderr alone does not fail the run; it is surfaced
				// alongside the completed output.
				if stderr.Len() > 0 {
					res.Error = stderr.String()
				}
				return Outcome{Result: res}

			case MsgError:
				terminate()
				return Outcome{
					Result: execution.Result{
						Success:         false,
						Output:          stdout.String(),
						Error:           msg.Data,
						ExitCode:        execution.ExitError,
						ExecutionTimeMs: time.Since(started).Milliseconds(),
					},
					ErrorStack: msg.Stack,
				}
			}
		}
	}
}

// TimeoutMessage is the learner-facing deadline diagnostic shared by every
// executor variant.
func TimeoutMessage(timeoutMs int) string {
	return fmt.Sprintf(
		"Execution timed out after %gs. Your code may contain an infinite loop.",
		float64(timeoutMs)/1000)
}
