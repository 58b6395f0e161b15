// Package pybox hosts a CPython interpreter compiled to WebAssembly inside
// the process via wazero. Acquiring and compiling the interpreter bundle is
// expensive and happens once; executions then instantiate cheap fresh
// modules from the cached compiled artifact, so runs share no interpreter
// globals even though the heavyweight artifact is reused.
package pybox

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"codelab/internal/execution"
	"codelab/internal/executor"
	"codelab/internal/sandbox"
	rt "codelab/internal/runtime"
	appErr "codelab/pkg/errors"
	"codelab/pkg/utils/logger"
)

// LanguageID is the registry key for this executor.
const LanguageID = "python"

const wasmPageSize = 64 * 1024

// defaultInterpreterMemory caps the guest linear memory when the config
// does not say otherwise. The cap is a property of the compiled runtime,
// so it is fixed at Initialize rather than per run; per-run MemoryBytes
// below this cap are not individually enforced, which is part of the
// heavyweight variant's documented looser guarantee.
const defaultInterpreterMemory = 512 * 1024 * 1024

// Config holds the interpreter bundle location and interpreter-wide caps.
type Config struct {
	Bundle         rt.BundleSpec `yaml:"bundle"`
	MaxMemoryBytes int64         `yaml:"maxMemoryBytes"`
}

// Executor is the heavyweight interpreter variant of CodeExecutor.
type Executor struct {
	executor.Lifecycle

	loader     *rt.Loader
	cfg        Config
	onProgress execution.ProgressFunc

	wazRuntime wazero.Runtime
	compiled   wazero.CompiledModule
}

// New creates an uninitialized Python executor. onProgress may be nil.
func New(loader *rt.Loader, cfg Config, onProgress execution.ProgressFunc) *Executor {
	return &Executor{loader: loader, cfg: cfg, onProgress: onProgress}
}

// Language implements executor.CodeExecutor.
func (e *Executor) Language() string { return LanguageID }

// Initialize acquires the interpreter bundle through the runtime loader
// (surfacing staged progress) and compiles it. No-op when already Ready;
// any failure is reported as a retryable RuntimeUnavailable condition.
func (e *Executor) Initialize(ctx context.Context) error {
	switch e.State() {
	case executor.StateReady:
		return nil
	case executor.StateExecuting:
		return appErr.New(appErr.ExecutorBusy)
	}
	if e.loader == nil {
		return appErr.Unavailable("runtime loader is not configured")
	}

	data, err := e.loader.Load(ctx, e.cfg.Bundle, e.onProgress)
	if err != nil {
		if appErr.Is(err, appErr.MemoryPressureHigh) || appErr.Is(err, appErr.LoaderCancelled) {
			return err
		}
		return appErr.Wrapf(err, appErr.RuntimeUnavailable, "python runtime load failed: %v", err)
	}

	maxMemory := e.cfg.MaxMemoryBytes
	if maxMemory <= 0 {
		maxMemory = defaultInterpreterMemory
	}
	pages := maxMemory / wasmPageSize
	if pages > 65536 {
		pages = 65536
	}

	runtimeCfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(uint32(pages))

	// The runtime outlives this call; tie it to the background context.
	wazRuntime := wazero.NewRuntimeWithConfig(context.Background(), runtimeCfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, wazRuntime)

	compiled, err := wazRuntime.CompileModule(ctx, data)
	if err != nil {
		_ = wazRuntime.Close(context.Background())
		return appErr.Wrapf(err, appErr.RuntimeUnavailable, "compile python runtime failed: %v", err)
	}

	e.wazRuntime = wazRuntime
	e.compiled = compiled
	e.Force(executor.StateReady)
	logger.Info(ctx, "python executor initialized", zap.String("bundle", e.cfg.Bundle.Key))
	return nil
}

// Execute runs one snippet in a fresh module instance. The deadline, the
// output limit and completion race each other; the first to fire resolves
// the call and the executor returns to Ready.
func (e *Executor) Execute(ctx context.Context, code, input string, limits execution.Limits) (execution.Result, error) {
	if err := e.RequireReady(); err != nil {
		return execution.Result{}, err
	}
	if !e.Transition(executor.StateReady, executor.StateExecuting) {
		return execution.Result{}, appErr.New(appErr.ExecutorBusy)
	}
	defer e.Transition(executor.StateExecuting, executor.StateReady)

	limits = limits.Normalize()
	timeout := time.Duration(limits.TimeoutMs) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newLimitWriter(limits.MaxOutputChars, cancel)
	var stderr bytes.Buffer

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs("python", "-c", code).
		WithStdin(strings.NewReader(input)).
		WithStdout(stdout).
		WithStderr(&stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	started := time.Now()
	mod, err := e.wazRuntime.InstantiateModule(runCtx, e.compiled, modCfg)
	if mod != nil {
		_ = mod.Close(context.Background())
	}
	elapsed := time.Since(started).Milliseconds()

	res := e.resolve(err, stdout, stderr.String(), runCtx, limits, elapsed)
	logger.Debug(ctx, "python execution finished",
		zap.Bool("success", res.Success),
		zap.Int("exit_code", res.ExitCode),
		zap.Int64("time_ms", res.ExecutionTimeMs))
	return res, nil
}

// resolve maps the instantiation outcome onto the result contract.
// Exactly one of {truncation, timeout, exit, error, completion} wins.
func (e *Executor) resolve(err error, stdout *limitWriter, stderr string, runCtx context.Context, limits execution.Limits, elapsedMs int64) execution.Result {
	if stdout.Truncated() {
		// Truncation alone terminates the run successfully.
		return execution.Result{
			Success:         true,
			Output:          stdout.String() + execution.TruncationMarker,
			ExitCode:        execution.ExitOK,
			ExecutionTimeMs: elapsedMs,
		}
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return execution.Result{
			Success:         false,
			Output:          stdout.String(),
			Error:           sandbox.TimeoutMessage(limits.TimeoutMs),
			ExitCode:        execution.ExitTimeout,
			ExecutionTimeMs: int64(limits.TimeoutMs),
		}
	}

	var exitErr *sys.ExitError
	switch {
	case err == nil:
		res := execution.Result{
			Success:         true,
			Output:          stdout.String(),
			ExitCode:        execution.ExitOK,
			ExecutionTimeMs: elapsedMs,
		}
		if stderr != "" {
			res.Error = stderr
		}
		return res

	case errors.As(err, &exitErr):
		code := int(exitErr.ExitCode())
		res := execution.Result{
			Success:         code == 0,
			Output:          stdout.String(),
			ExitCode:        code,
			ExecutionTimeMs: elapsedMs,
		}
		if code != 0 {
			res.Error = pythonError(stderr)
			res.ExitCode = execution.ExitError
		} else if stderr != "" {
			res.Error = stderr
		}
		return res

	default:
		return execution.Result{
			Success:         false,
			Output:          stdout.String(),
			Error:           pythonError(stderr + err.Error()),
			ExitCode:        execution.ExitError,
			ExecutionTimeMs: elapsedMs,
		}
	}
}

// Reset tears the compiled runtime down and provisions it again. For this
// variant that is the expensive full-restart path; per-run module
// instantiation already keeps ordinary runs isolated.
func (e *Executor) Reset(ctx context.Context) error {
	if e.State() == executor.StateDisposed {
		return appErr.New(appErr.ExecutorDisposed)
	}
	e.closeRuntime()
	e.Force(executor.StateUninitialized)
	return e.Initialize(ctx)
}

// Dispose releases the compiled runtime. Re-Initialize is required after.
func (e *Executor) Dispose() {
	e.closeRuntime()
	e.Force(executor.StateDisposed)
}

func (e *Executor) closeRuntime() {
	if e.wazRuntime != nil {
		_ = e.wazRuntime.Close(context.Background())
		e.wazRuntime = nil
		e.compiled = nil
	}
}
