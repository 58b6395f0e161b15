// Package cli is the interactive developer harness: load an exercise,
// iterate on a solution file, run visible tests, then grade a submission.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"

	"codelab/internal/execution"
	"codelab/internal/exercise"
	"codelab/internal/executor"
	"codelab/internal/grading"
	rt "codelab/internal/runtime"
	appErr "codelab/pkg/errors"
)

// Session holds REPL state.
type Session struct {
	registry    *executor.Registry
	runner      *grading.Runner
	loader      *rt.Loader // nil when no object store is configured
	exerciseDir string

	ex        *exercise.Exercise
	codePath  string
	hintsUsed int

	out io.Writer
}

// New creates a REPL session. loader may be nil; runtime status commands
// then report that remote runtimes are not configured.
func New(registry *executor.Registry, runner *grading.Runner, loader *rt.Loader, exerciseDir string) *Session {
	return &Session{
		registry:    registry,
		runner:      runner,
		loader:      loader,
		exerciseDir: exerciseDir,
		out:         os.Stdout,
	}
}

// Run drives the read-eval loop until exit or EOF.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "codelab> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer rl.Close()
	s.out = rl.Stdout()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.handleCommand(ctx, line); err != nil {
			s.printError(err)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}
	cmd, args := tokens[0], tokens[1:]
	switch cmd {
	case "help":
		s.printHelp()
		return nil
	case "langs":
		return s.handleLangs()
	case "list":
		return s.handleList()
	case "load":
		return s.handleLoad(args)
	case "code":
		return s.handleCode(args)
	case "show":
		return s.handleShow(args)
	case "run":
		return s.handleRun(ctx, args, false)
	case "submit":
		return s.handleRun(ctx, args, true)
	case "hint":
		return s.handleHint()
	case "exec":
		return s.handleExec(ctx, args)
	case "warm":
		return s.handleWarm(ctx, args)
	case "reset":
		return s.handleReset(ctx, args)
	case "runtime":
		return s.handleRuntime()
	default:
		return fmt.Errorf("unknown command: %s (try help)", cmd)
	}
}

func (s *Session) handleLangs() error {
	langs := s.registry.Languages()
	sort.Strings(langs)
	s.printLine("languages: %s", strings.Join(langs, ", "))
	return nil
}

func (s *Session) handleList() error {
	entries, err := os.ReadDir(s.exerciseDir)
	if err != nil {
		return fmt.Errorf("read exercise dir failed: %w", err)
	}
	found := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s.printLine("  %s", strings.TrimSuffix(e.Name(), ".json"))
		found++
	}
	if found == 0 {
		s.printLine("no exercises in %s", s.exerciseDir)
	}
	return nil
}

func (s *Session) handleLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <exercise-id|path>")
	}
	path := args[0]
	if !strings.HasSuffix(path, ".json") {
		path = filepath.Join(s.exerciseDir, path+".json")
	}
	ex, err := exercise.Load(path)
	if err != nil {
		return err
	}
	s.ex = &ex
	s.hintsUsed = 0
	visible := 0
	for _, tc := range ex.TestCases {
		if tc.Visible {
			visible++
		}
	}
	s.printLine("loaded %q (%s, %d tests, %d visible)", ex.Title, ex.Language, len(ex.TestCases), visible)
	return nil
}

func (s *Session) handleCode(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: code <file>")
	}
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("stat code file failed: %w", err)
	}
	s.codePath = args[0]
	s.printLine("code file set to %s", s.codePath)
	return nil
}

func (s *Session) handleShow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show exercise|starter|limits")
	}
	if s.ex == nil {
		return fmt.Errorf("no exercise loaded, use: load <id>")
	}
	switch args[0] {
	case "exercise":
		data, err := json.MarshalIndent(s.ex, "", "  ")
		if err != nil {
			return err
		}
		s.printLine("%s", string(data))
	case "starter":
		s.printLine("%s", s.ex.Editor.StarterCode)
	case "limits":
		limits := s.ex.EffectiveLimits()
		s.printLine("timeout: %dms, memory: %d bytes, max output: %d chars",
			limits.TimeoutMs, limits.MemoryBytes, limits.MaxOutputChars)
	default:
		return fmt.Errorf("usage: show exercise|starter|limits")
	}
	return nil
}

func (s *Session) resolveCode(args []string) (string, error) {
	path := s.codePath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return "", fmt.Errorf("no code file, use: code <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code file failed: %w", err)
	}
	return string(data), nil
}

func (s *Session) handleRun(ctx context.Context, args []string, submit bool) error {
	if s.ex == nil {
		return fmt.Errorf("no exercise loaded, use: load <id>")
	}
	code, err := s.resolveCode(args)
	if err != nil {
		return err
	}
	limits := s.ex.EffectiveLimits()

	if !submit {
		results, err := s.runner.RunVisibleTests(ctx, code, s.ex.TestCases, s.ex.Language, limits)
		if err != nil {
			return err
		}
		s.renderResults(results.Results, false)
		s.printLine("%s", grading.GenerateFeedback(results))
		return nil
	}

	results, err := s.runner.RunAllTests(ctx, code, s.ex.TestCases, s.ex.Language, limits)
	if err != nil {
		return err
	}
	s.renderResults(results.Results, true)
	score, err := grading.CalculateScore(results, s.ex.Scoring)
	if err != nil {
		return err
	}
	s.printLine("%s", grading.GenerateFeedback(results))
	if penalty := s.hintPenalty(); penalty > 0 {
		final := grading.ApplyHintPenalty(score, penalty)
		s.printLine("score: %d / %d (%d raw, -%d for hints)", final, results.TotalPoints, score, penalty)
		return nil
	}
	s.printLine("score: %d / %d", score, results.TotalPoints)
	return nil
}

func (s *Session) handleHint() error {
	if s.ex == nil {
		return fmt.Errorf("no exercise loaded, use: load <id>")
	}
	if s.hintsUsed >= len(s.ex.Hints) {
		s.printLine("no more hints for this exercise")
		return nil
	}
	hint := s.ex.Hints[s.hintsUsed]
	s.hintsUsed++
	s.printLine("hint %d/%d (-%d points): %s", s.hintsUsed, len(s.ex.Hints), hint.Penalty, hint.Text)
	return nil
}

func (s *Session) hintPenalty() int {
	if s.ex == nil {
		return 0
	}
	total := 0
	for _, h := range s.ex.Hints[:s.hintsUsed] {
		total += h.Penalty
	}
	return total
}

func (s *Session) handleExec(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: exec <language> <file> [input]")
	}
	code, err := s.resolveCode(args[1:2])
	if err != nil {
		return err
	}
	input := ""
	if len(args) > 2 {
		input = strings.Join(args[2:], "\n")
	}
	limits := execution.DefaultLimits()
	if s.ex != nil {
		limits = s.ex.EffectiveLimits()
	}
	res, err := s.registry.Execute(ctx, args[0], code, input, limits)
	if err != nil {
		return err
	}
	s.printLine("exit %d in %dms", res.ExitCode, res.ExecutionTimeMs)
	if res.Output != "" {
		s.printLine("%s", strings.TrimRight(res.Output, "\n"))
	}
	if res.Error != "" {
		s.printLine("error: %s", res.Error)
	}
	return nil
}

func (s *Session) handleWarm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: warm <language>")
	}
	if err := s.registry.Initialize(ctx, args[0]); err != nil {
		return err
	}
	s.printLine("%s executor ready", args[0])
	return nil
}

func (s *Session) handleReset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reset <language>")
	}
	if err := s.registry.Reset(ctx, args[0]); err != nil {
		return err
	}
	s.printLine("%s context recreated", args[0])
	return nil
}

func (s *Session) handleRuntime() error {
	if s.loader == nil {
		s.printLine("remote runtimes not configured")
		return nil
	}
	check := s.loader.MemoryCheck()
	s.printLine("memory: %.1f GB available, pressure %s", check.AvailableGB, check.Pressure)
	if check.Warning != "" {
		s.printLine("warning: %s", check.Warning)
	}
	if !check.CanLoadRuntime {
		s.printLine("runtime loading is currently refused")
	}
	return nil
}

func (s *Session) renderResults(results []execution.TestCaseResult, withHidden bool) {
	for _, r := range results {
		mark := "FAIL"
		if r.Passed {
			mark = "PASS"
		}
		name := r.Name
		if name == "" {
			name = r.ID
		}
		tag := ""
		if withHidden && !r.Visible {
			tag = " (hidden)"
		}
		s.printLine("  [%s] %s%s (%dms)", mark, name, tag, r.ExecutionTimeMs)
	}
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	s.printLine("  load <id|path>         load an exercise definition")
	s.printLine("  code <file>            set the solution file")
	s.printLine("  run [file]             run visible tests")
	s.printLine("  submit [file]          run all tests and score")
	s.printLine("  exec <lang> <file> [input]  run a file directly")
	s.printLine("  hint                   reveal the next hint (costs points)")
	s.printLine("  show exercise|starter|limits")
	s.printLine("  list | langs | warm <lang> | reset <lang> | runtime")
	s.printLine("  help | exit")
}

func (s *Session) printError(err error) {
	if appErr.GetCode(err).Retryable() {
		s.printLine("error: %v (retryable, try again)", err)
		return
	}
	s.printLine("error: %v", err)
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
