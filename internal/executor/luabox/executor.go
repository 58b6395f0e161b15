package luabox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"codelab/internal/execution"
	"codelab/internal/executor"
	"codelab/internal/sandbox"
	appErr "codelab/pkg/errors"
	"codelab/pkg/utils/logger"
)

// LanguageID is the registry key for this executor.
const LanguageID = "lua"

// bootstrapTimeout bounds lightweight context provisioning.
const bootstrapTimeout = 5 * time.Second

// Executor is the lightweight isolated execution context. Tearing a Lua
// state down and recreating it costs microseconds, so every Execute gets a
// fresh interpreter. That recreation is what guarantees run-to-run
// isolation for fair grading; it is not an optimization.
type Executor struct {
	executor.Lifecycle
}

// New creates an uninitialized Lua executor.
func New() *Executor {
	return &Executor{}
}

// Language implements executor.CodeExecutor.
func (e *Executor) Language() string { return LanguageID }

// Initialize provisions and probes a throwaway interpreter state. No-op
// when already Ready. A hung bootstrap fails after bootstrapTimeout.
func (e *Executor) Initialize(ctx context.Context) error {
	switch e.State() {
	case executor.StateReady:
		return nil
	case executor.StateExecuting:
		return appErr.New(appErr.ExecutorBusy)
	}

	probeCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		conduit := sandbox.NewConduit(1)
		defer conduit.Close()
		L, err := newState(probeCtx, conduit, "")
		if err == nil {
			L.Close()
		}
		done <- err
	}()

	select {
	case <-probeCtx.Done():
		return appErr.Wrap(probeCtx.Err(), appErr.BootstrapTimeout)
	case err := <-done:
		if err != nil {
			return appErr.Wrapf(err, appErr.RuntimeUnavailable, "lua sandbox bootstrap failed")
		}
	}

	e.Force(executor.StateReady)
	logger.Debug(ctx, "lua executor initialized")
	return nil
}

// Execute runs one snippet in a brand-new interpreter state, racing
// completion, error, output truncation and the deadline. Exactly one of
// them resolves the call; the executor always returns to Ready.
func (e *Executor) Execute(ctx context.Context, code, input string, limits execution.Limits) (execution.Result, error) {
	if err := e.RequireReady(); err != nil {
		return execution.Result{}, err
	}
	if !e.Transition(executor.StateReady, executor.StateExecuting) {
		return execution.Result{}, appErr.New(appErr.ExecutorBusy)
	}
	defer e.Transition(executor.StateExecuting, executor.StateReady)

	limits = limits.Normalize()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conduit := sandbox.NewConduit(64)
	started := time.Now()

	go runWorker(runCtx, conduit)
	conduit.Send(sandbox.Message{Type: sandbox.MsgExecute, Code: code, Input: input})

	collector := sandbox.Collector{
		Limits: limits,
		Terminate: func() {
			cancel()
			conduit.Close()
		},
	}
	outcome := collector.Collect(conduit.HostRecv(), started)

	res := outcome.Result
	if res.Error != "" && !res.Success && !res.TimedOut() {
		res.Error = Classify(res.Error, outcome.ErrorStack)
	}

	logger.Debug(ctx, "lua execution finished",
		zap.Bool("success", res.Success),
		zap.Int("exit_code", res.ExitCode),
		zap.Int64("time_ms", res.ExecutionTimeMs))
	return res, nil
}

// Reset recreates the execution context without running code. Nothing
// survives between runs anyway, so this only re-probes the interpreter.
func (e *Executor) Reset(ctx context.Context) error {
	if e.State() == executor.StateDisposed {
		return appErr.New(appErr.ExecutorDisposed)
	}
	e.Force(executor.StateUninitialized)
	return e.Initialize(ctx)
}

// Dispose releases the executor. Subsequent use requires Initialize.
func (e *Executor) Dispose() {
	e.Force(executor.StateDisposed)
}
