// Package execution defines the shared value types exchanged between the
// executors, the runtime loader and the grading runner.
package execution

import (
	appErr "codelab/pkg/errors"
)

// Default limit profile applied when an exercise does not override it.
const (
	DefaultTimeoutMs      = 30000
	DefaultMemoryBytes    = 50 * 1024 * 1024
	DefaultMaxOutputChars = 10000
)

// Limits bounds one run of submitted code.
type Limits struct {
	TimeoutMs      int   `json:"timeoutMs" yaml:"timeoutMs"`
	MemoryBytes    int64 `json:"memoryBytes" yaml:"memoryBytes"`
	MaxOutputChars int   `json:"maxOutputChars" yaml:"maxOutputChars"`
}

// DefaultLimits returns the default limit profile.
func DefaultLimits() Limits {
	return Limits{
		TimeoutMs:      DefaultTimeoutMs,
		MemoryBytes:    DefaultMemoryBytes,
		MaxOutputChars: DefaultMaxOutputChars,
	}
}

// Normalize fills non-positive fields from the default profile.
func (l Limits) Normalize() Limits {
	if l.TimeoutMs <= 0 {
		l.TimeoutMs = DefaultTimeoutMs
	}
	if l.MemoryBytes <= 0 {
		l.MemoryBytes = DefaultMemoryBytes
	}
	if l.MaxOutputChars <= 0 {
		l.MaxOutputChars = DefaultMaxOutputChars
	}
	return l
}

// Validate rejects limit profiles with non-positive fields.
func (l Limits) Validate() error {
	if l.TimeoutMs <= 0 {
		return appErr.ValidationError("timeoutMs", "must be positive")
	}
	if l.MemoryBytes <= 0 {
		return appErr.ValidationError("memoryBytes", "must be positive")
	}
	if l.MaxOutputChars <= 0 {
		return appErr.ValidationError("maxOutputChars", "must be positive")
	}
	return nil
}
