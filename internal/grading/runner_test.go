package grading_test

import (
	"context"
	"fmt"
	"testing"

	"codelab/internal/execution"
	"codelab/internal/grading"
	appErr "codelab/pkg/errors"
)

// fakePool scripts per-input outputs and records the limits each
// execution ran under.
type fakePool struct {
	initErr error
	outputs map[string]execution.Result
	execErr map[string]error
	calls   []execution.Limits
	inputs  []string
}

func (f *fakePool) Initialize(ctx context.Context, language string) error {
	return f.initErr
}

func (f *fakePool) Execute(ctx context.Context, language, code, input string, limits execution.Limits) (execution.Result, error) {
	f.calls = append(f.calls, limits)
	f.inputs = append(f.inputs, input)
	if err, ok := f.execErr[input]; ok {
		return execution.Result{}, err
	}
	if res, ok := f.outputs[input]; ok {
		return res, nil
	}
	return execution.Result{Success: true, ExitCode: execution.ExitOK}, nil
}

func pass(output string) execution.Result {
	return execution.Result{Success: true, Output: output, ExitCode: execution.ExitOK, ExecutionTimeMs: 3}
}

func suite() []execution.TestCase {
	return []execution.TestCase{
		{ID: "t1", Name: "visible one", Visible: true, Input: "1", ExpectedOutput: "a\n", Points: 10},
		{ID: "t2", Name: "hidden", Visible: false, Input: "2", ExpectedOutput: "b\n", Points: 20},
		{ID: "t3", Name: "visible two", Visible: true, Input: "3", ExpectedOutput: "c\n", Points: 30, TimeoutMs: 1500},
	}
}

func TestRunVisibleTestsFiltersHidden(t *testing.T) {
	pool := &fakePool{outputs: map[string]execution.Result{
		"1": pass("a\n"),
		"3": pass("c\n"),
	}}
	r := grading.NewRunner(pool)

	results, err := r.RunVisibleTests(context.Background(), "code", suite(), "lua", execution.Limits{})
	if err != nil {
		t.Fatalf("run visible: %v", err)
	}
	if results.TotalTests != 2 {
		t.Fatalf("hidden case leaked into visible run: %+v", results)
	}
	for _, input := range pool.inputs {
		if input == "2" {
			t.Fatal("hidden case executed during visible run")
		}
	}
	if !results.AllPassed || results.EarnedPoints != 40 {
		t.Fatalf("aggregation wrong: %+v", results)
	}
	if results.AttemptID == "" {
		t.Fatal("attempt id missing")
	}
}

func TestRunAllTestsIncludesHidden(t *testing.T) {
	pool := &fakePool{outputs: map[string]execution.Result{
		"1": pass("a\n"),
		"2": pass("wrong\n"),
		"3": pass("c\n"),
	}}
	r := grading.NewRunner(pool)

	results, err := r.RunAllTests(context.Background(), "code", suite(), "lua", execution.Limits{})
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if results.TotalTests != 3 || results.PassedTests != 2 {
		t.Fatalf("counts wrong: %+v", results)
	}
	if results.AllPassed {
		t.Fatal("allPassed must be false")
	}
	if results.EarnedPoints != 40 || results.TotalPoints != 60 {
		t.Fatalf("points wrong: %+v", results)
	}

	failed := results.Results[1]
	if failed.Passed || failed.EarnedPoints != 0 {
		t.Fatalf("failed case graded wrong: %+v", failed)
	}
	if failed.Feedback == "" {
		t.Fatal("failed case must carry feedback")
	}
}

func TestPerTestTimeoutOverride(t *testing.T) {
	pool := &fakePool{}
	r := grading.NewRunner(pool)

	_, err := r.RunAllTests(context.Background(), "code", suite(), "lua", execution.Limits{TimeoutMs: 4000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := pool.calls[0].TimeoutMs; got != 4000 {
		t.Fatalf("t1 should run under the suite limit, got %dms", got)
	}
	if got := pool.calls[2].TimeoutMs; got != 1500 {
		t.Fatalf("t3 should run under its own limit, got %dms", got)
	}
}

func TestExecutorErrorCapturedPerCase(t *testing.T) {
	pool := &fakePool{
		outputs: map[string]execution.Result{"1": pass("a\n"), "3": pass("c\n")},
		execErr: map[string]error{"2": fmt.Errorf("vm crashed")},
	}
	r := grading.NewRunner(pool)

	results, err := r.RunAllTests(context.Background(), "code", suite(), "lua", execution.Limits{})
	if err != nil {
		t.Fatalf("a per-case failure must not abort the suite: %v", err)
	}
	crashed := results.Results[1]
	if crashed.Passed || crashed.Error != "vm crashed" {
		t.Fatalf("crash not captured: %+v", crashed)
	}
	if results.PassedTests != 2 {
		t.Fatalf("remaining cases must still run: %+v", results)
	}
}

func TestProvisioningFailureAbortsSuite(t *testing.T) {
	pool := &fakePool{initErr: appErr.New(appErr.RuntimeUnavailable)}
	r := grading.NewRunner(pool)

	_, err := r.RunAllTests(context.Background(), "code", suite(), "lua", execution.Limits{})
	if !appErr.Is(err, appErr.RuntimeUnavailable) {
		t.Fatalf("expected RuntimeUnavailable, got %v", err)
	}
}

func TestFailedRunOutputNotMatched(t *testing.T) {
	pool := &fakePool{outputs: map[string]execution.Result{
		// Right text but a failing exit: must not pass.
		"1": {Success: false, Output: "a\n", Error: "Line 1: boom", ExitCode: execution.ExitError},
		"2": pass("b\n"),
		"3": pass("c\n"),
	}}
	r := grading.NewRunner(pool)

	results, err := r.RunAllTests(context.Background(), "code", suite(), "lua", execution.Limits{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results.Results[0].Passed {
		t.Fatalf("failed execution must not pass on matching output: %+v", results.Results[0])
	}
}
