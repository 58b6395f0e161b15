package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 20000-20999: Executor lifecycle errors
// 21000-21999: Sandbox & per-execution errors
// 22000-22999: Runtime loader errors
// 23000-23999: Grading & exercise errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalError      ErrorCode = 10001
	InvalidParams      ErrorCode = 10002
	NotFound           ErrorCode = 10003
	ServiceUnavailable ErrorCode = 10004
	Timeout            ErrorCode = 10005

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Executor Lifecycle Errors (20000-20999) ==========

	ExecutorNotReady     ErrorCode = 20000
	ExecutorDisposed     ErrorCode = 20001
	ExecutorBusy         ErrorCode = 20002
	RuntimeUnavailable   ErrorCode = 20003
	BootstrapTimeout     ErrorCode = 20004
	LanguageNotSupported ErrorCode = 20005

	// ========== Sandbox & Execution Errors (21000-21999) ==========

	SandboxViolation    ErrorCode = 21000
	RuntimeError        ErrorCode = 21001
	ExecutionTimeout    ErrorCode = 21002
	OutputLimitExceeded ErrorCode = 21003
	MemoryLimitExceeded ErrorCode = 21004
	SandboxClosed       ErrorCode = 21005

	// ========== Runtime Loader Errors (22000-22999) ==========

	LoaderCancelled    ErrorCode = 22000
	DownloadFailed     ErrorCode = 22001
	BundleCorrupt      ErrorCode = 22002
	CacheError         ErrorCode = 22003
	MemoryPressureHigh ErrorCode = 22004
	CompileFailed      ErrorCode = 22005

	// ========== Grading & Exercise Errors (23000-23999) ==========

	ExerciseNotFound     ErrorCode = 23000
	ExerciseInvalid      ErrorCode = 23001
	NoTestCases          ErrorCode = 23002
	ScoringMethodUnknown ErrorCode = 23003
)

// errorMessages maps error codes to their default messages
var errorMessages = map[ErrorCode]string{
	Success:            "Success",
	InternalError:      "Internal error",
	InvalidParams:      "Invalid parameters",
	NotFound:           "Resource not found",
	ServiceUnavailable: "Service unavailable",
	Timeout:            "Operation timed out",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	ExecutorNotReady:     "Executor is not initialized",
	ExecutorDisposed:     "Executor has been disposed",
	ExecutorBusy:         "Executor is already running code",
	RuntimeUnavailable:   "Language runtime is unavailable",
	BootstrapTimeout:     "Sandbox initialization timed out",
	LanguageNotSupported: "Programming language not supported",

	SandboxViolation:    "Blocked capability was accessed",
	RuntimeError:        "Runtime error",
	ExecutionTimeout:    "Execution time limit exceeded",
	OutputLimitExceeded: "Output limit exceeded",
	MemoryLimitExceeded: "Memory limit exceeded",
	SandboxClosed:       "Sandbox was closed during execution",

	LoaderCancelled:    "Runtime load was cancelled",
	DownloadFailed:     "Runtime download failed",
	BundleCorrupt:      "Runtime bundle is corrupt",
	CacheError:         "Runtime cache error",
	MemoryPressureHigh: "Device memory is too low to load the runtime",
	CompileFailed:      "Runtime compilation failed",

	ExerciseNotFound:     "Exercise not found",
	ExerciseInvalid:      "Invalid exercise definition",
	NoTestCases:          "Exercise has no test cases",
	ScoringMethodUnknown: "Unknown scoring method",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// Retryable reports whether the caller may reasonably retry the operation
// that produced this code. Loader failures are retryable by calling
// Initialize again; per-execution failures are not retried, they are graded.
func (c ErrorCode) Retryable() bool {
	switch c {
	case RuntimeUnavailable, BootstrapTimeout, DownloadFailed, CacheError,
		LoaderCancelled, MemoryPressureHigh, ServiceUnavailable, Timeout:
		return true
	default:
		return false
	}
}
