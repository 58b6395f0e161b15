package executor

import (
	"context"
	"sync"

	"codelab/internal/execution"
	appErr "codelab/pkg/errors"
)

// Factory builds a fresh executor for a language.
type Factory func() CodeExecutor

// Registry is an explicit pool of one executor per language. Executors are
// created lazily on first use and disposed only at teardown. All access to
// a pooled executor is serialized: concurrent Execute calls on the same
// language queue behind a per-language mutex, which is the contract the
// underlying contexts rely on for isolation.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	entries   map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	exec CodeExecutor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		entries:   make(map[string]*entry),
	}
}

// Register installs the factory for a language. Later registrations for the
// same language replace the factory but not an already-built executor.
func (r *Registry) Register(language string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[language] = factory
}

// Languages lists registered language identifiers.
func (r *Registry) Languages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	langs := make([]string, 0, len(r.factories))
	for lang := range r.factories {
		langs = append(langs, lang)
	}
	return langs
}

func (r *Registry) entryFor(language string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[language]; ok {
		return e, nil
	}
	factory, ok := r.factories[language]
	if !ok {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "no executor registered for language %q", language)
	}
	e := &entry{exec: factory()}
	r.entries[language] = e
	return e, nil
}

// Initialize provisions the executor for a language, building it first if
// needed. Idempotent per the CodeExecutor contract.
func (r *Registry) Initialize(ctx context.Context, language string) error {
	e, err := r.entryFor(language)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exec.Initialize(ctx)
}

// Execute runs code on the language's pooled executor, initializing it on
// first use. Calls for the same language are serialized.
func (r *Registry) Execute(ctx context.Context, language, code, input string, limits execution.Limits) (execution.Result, error) {
	e, err := r.entryFor(language)
	if err != nil {
		return execution.Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.exec.Initialize(ctx); err != nil {
		return execution.Result{}, err
	}
	return e.exec.Execute(ctx, code, input, limits)
}

// Reset recreates the language's execution context.
func (r *Registry) Reset(ctx context.Context, language string) error {
	e, err := r.entryFor(language)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exec.Reset(ctx)
}

// DisposeAll tears down every pooled executor. Used at session teardown.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for lang, e := range r.entries {
		entries = append(entries, e)
		delete(r.entries, lang)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.exec.Dispose()
		e.mu.Unlock()
	}
}
