package execution_test

import (
	"testing"

	"codelab/internal/execution"
)

func TestMatchesExact(t *testing.T) {
	tc := execution.TestCase{ExpectedOutput: "4\n"}

	ok, err := tc.Matches("4\n")
	if err != nil || !ok {
		t.Fatalf("exact match failed: ok=%v err=%v", ok, err)
	}
	ok, err = tc.Matches("4")
	if err != nil || ok {
		t.Fatalf("trailing newline must matter: ok=%v err=%v", ok, err)
	}
}

func TestMatchesPatternTakesPrecedence(t *testing.T) {
	tc := execution.TestCase{
		ExpectedOutput: "never this",
		OutputPattern:  `^\d+\n$`,
	}
	ok, err := tc.Matches("42\n")
	if err != nil || !ok {
		t.Fatalf("pattern should win over exact: ok=%v err=%v", ok, err)
	}
	ok, err = tc.Matches("never this")
	if err != nil || ok {
		t.Fatalf("exact text must not match when a pattern is set: ok=%v", ok)
	}
}

func TestMatchesBadPattern(t *testing.T) {
	tc := execution.TestCase{OutputPattern: `([`}
	if _, err := tc.Matches("anything"); err == nil {
		t.Fatal("expected compile error for invalid pattern")
	}
}

func TestRecompute(t *testing.T) {
	tr := execution.TestResults{
		Results: []execution.TestCaseResult{
			{TestCase: execution.TestCase{Points: 10}, Passed: true, EarnedPoints: 10, ExecutionTimeMs: 5},
			{TestCase: execution.TestCase{Points: 20}, Passed: false, ExecutionTimeMs: 7},
		},
	}
	tr.Recompute()

	if tr.TotalTests != 2 || tr.PassedTests != 1 {
		t.Fatalf("counts wrong: %+v", tr)
	}
	if tr.TotalPoints != 30 || tr.EarnedPoints != 10 {
		t.Fatalf("points wrong: %+v", tr)
	}
	if tr.AllPassed {
		t.Fatal("allPassed must be false with a failing case")
	}
	if tr.TotalTimeMs != 12 {
		t.Fatalf("total time wrong: %d", tr.TotalTimeMs)
	}
}

func TestRecomputeEmptySuite(t *testing.T) {
	var tr execution.TestResults
	tr.Recompute()
	if tr.AllPassed {
		t.Fatal("empty suite must not count as all passed")
	}
}

func TestTimedOut(t *testing.T) {
	r := execution.Result{ExitCode: execution.ExitTimeout}
	if !r.TimedOut() {
		t.Fatal("exit 124 should report timed out")
	}
	if (execution.Result{ExitCode: execution.ExitError}).TimedOut() {
		t.Fatal("exit 1 should not report timed out")
	}
}
