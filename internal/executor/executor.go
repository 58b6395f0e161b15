// Package executor defines the common capability contract implemented by
// every isolated execution context, and the per-language executor pool.
package executor

import (
	"context"
	"sync/atomic"

	"codelab/internal/execution"
	appErr "codelab/pkg/errors"
)

// State is the executor lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateExecuting
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// CodeExecutor runs untrusted submitted code inside an isolated context.
//
// Lifecycle: Uninitialized -> Ready -> Executing -> Ready ... -> Disposed.
// Initialize is idempotent. Execute requires Ready and always returns the
// executor to Ready, whatever the run's outcome. Per-execution failures are
// captured in the Result; the error return is reserved for lifecycle misuse
// and provisioning failures.
//
// Implementations are not safe for concurrent Execute calls; wrap them in
// the Registry, which serializes access.
type CodeExecutor interface {
	// Language returns the language identifier this executor serves.
	Language() string

	// Initialize provisions the isolated context. No-op when already Ready.
	Initialize(ctx context.Context) error

	// Execute runs one snippet against one input under the given limits.
	Execute(ctx context.Context, code, input string, limits execution.Limits) (execution.Result, error)

	// Reset tears down and recreates the context without running code.
	Reset(ctx context.Context) error

	// Dispose releases all resources. A disposed executor requires
	// re-Initialize before further use.
	Dispose()
}

// Lifecycle tracks executor state with atomic transitions. Embed it to get
// the shared state checks.
type Lifecycle struct {
	state atomic.Int32
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Transition moves from one state to another, failing when the current
// state is not the expected one.
func (l *Lifecycle) Transition(from, to State) bool {
	return l.state.CompareAndSwap(int32(from), int32(to))
}

// Force sets the state unconditionally.
func (l *Lifecycle) Force(to State) {
	l.state.Store(int32(to))
}

// RequireReady fails unless the executor is Ready, distinguishing the
// disposed, busy and uninitialized cases.
func (l *Lifecycle) RequireReady() error {
	switch l.State() {
	case StateReady:
		return nil
	case StateDisposed:
		return appErr.New(appErr.ExecutorDisposed)
	case StateExecuting:
		return appErr.New(appErr.ExecutorBusy)
	default:
		return appErr.New(appErr.ExecutorNotReady)
	}
}
