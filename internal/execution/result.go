package execution

// Exit code conventions shared by every executor.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitTimeout = 124
)

// TruncationMarker is appended to output cut off at MaxOutputChars.
const TruncationMarker = "\n[Output truncated]"

// Result captures the raw outcome of one execution.
//
// Success is false whenever execution terminated abnormally. Truncation due
// to the output limit alone is reported as success with the marker appended.
type Result struct {
	Success         bool   `json:"success"`
	Output          string `json:"output"`
	Error           string `json:"error,omitempty"`
	ExitCode        int    `json:"exitCode"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
	MemoryUsedBytes int64  `json:"memoryUsedBytes"`
}

// TimedOut reports whether the run was killed by the deadline.
func (r Result) TimedOut() bool {
	return r.ExitCode == ExitTimeout
}
