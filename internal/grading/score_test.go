package grading_test

import (
	"strings"
	"testing"

	"codelab/internal/execution"
	"codelab/internal/exercise"
	"codelab/internal/grading"
	appErr "codelab/pkg/errors"
)

func gradedSuite(passFirst, passSecond bool) execution.TestResults {
	tr := execution.TestResults{
		Results: []execution.TestCaseResult{
			{TestCase: execution.TestCase{ID: "t1", Points: 10}, Passed: passFirst, ExecutionTimeMs: 30},
			{TestCase: execution.TestCase{ID: "t2", Points: 20}, Passed: passSecond, ExecutionTimeMs: 40},
		},
	}
	for i := range tr.Results {
		if tr.Results[i].Passed {
			tr.Results[i].EarnedPoints = tr.Results[i].Points
		}
	}
	tr.Recompute()
	return tr
}

func TestCalculateScoreAllOrNothing(t *testing.T) {
	policy := exercise.Scoring{Method: exercise.ScoreAllOrNothing}

	score, err := grading.CalculateScore(gradedSuite(true, true), policy)
	if err != nil || score != 30 {
		t.Fatalf("full pass: score=%d err=%v", score, err)
	}
	score, err = grading.CalculateScore(gradedSuite(true, false), policy)
	if err != nil || score != 0 {
		t.Fatalf("partial pass must score zero: score=%d err=%v", score, err)
	}
}

func TestCalculateScorePerTest(t *testing.T) {
	policy := exercise.Scoring{Method: exercise.ScorePerTest}
	score, err := grading.CalculateScore(gradedSuite(false, true), policy)
	if err != nil || score != 20 {
		t.Fatalf("per-test: score=%d err=%v", score, err)
	}
}

func TestCalculateScoreWeighted(t *testing.T) {
	policy := exercise.Scoring{
		Method:  exercise.ScoreWeighted,
		Weights: map[string]float64{"t2": 1.5},
	}
	// t1 earns 10 at default weight 1, t2 earns 20 at weight 1.5.
	score, err := grading.CalculateScore(gradedSuite(true, true), policy)
	if err != nil || score != 40 {
		t.Fatalf("weighted: score=%d err=%v", score, err)
	}
}

func TestCalculateScoreEfficiencyBonus(t *testing.T) {
	policy := exercise.Scoring{
		Method:          exercise.ScorePerTest,
		EfficiencyBonus: &exercise.EfficiencyBonus{ThresholdMs: 100, Points: 5},
	}

	// Suite total is 70ms, under the threshold.
	score, err := grading.CalculateScore(gradedSuite(true, true), policy)
	if err != nil || score != 35 {
		t.Fatalf("bonus should apply: score=%d err=%v", score, err)
	}

	// Bonus requires a full pass.
	score, err = grading.CalculateScore(gradedSuite(true, false), policy)
	if err != nil || score != 10 {
		t.Fatalf("bonus must not apply on partial pass: score=%d err=%v", score, err)
	}

	slow := exercise.Scoring{
		Method:          exercise.ScorePerTest,
		EfficiencyBonus: &exercise.EfficiencyBonus{ThresholdMs: 50, Points: 5},
	}
	score, err = grading.CalculateScore(gradedSuite(true, true), slow)
	if err != nil || score != 30 {
		t.Fatalf("bonus must not apply over threshold: score=%d err=%v", score, err)
	}
}

func TestCalculateScoreUnknownMethod(t *testing.T) {
	_, err := grading.CalculateScore(gradedSuite(true, true), exercise.Scoring{Method: "roulette"})
	if !appErr.Is(err, appErr.ScoringMethodUnknown) {
		t.Fatalf("expected ScoringMethodUnknown, got %v", err)
	}
}

func TestApplyHintPenalty(t *testing.T) {
	if got := grading.ApplyHintPenalty(30, 10); got != 20 {
		t.Fatalf("penalty wrong: %d", got)
	}
	if got := grading.ApplyHintPenalty(5, 10); got != 0 {
		t.Fatalf("score must not go negative: %d", got)
	}
	if got := grading.ApplyHintPenalty(5, -3); got != 5 {
		t.Fatalf("negative penalties must be ignored: %d", got)
	}
}

func TestGenerateFeedback(t *testing.T) {
	all := gradedSuite(true, true)
	if got := grading.GenerateFeedback(all); !strings.Contains(got, "All 2 tests passed") {
		t.Fatalf("full pass feedback wrong: %q", got)
	}

	partial := gradedSuite(true, false)
	partial.Results[1].Name = "edge case"
	partial.Results[1].FailureFeedback = "Remember negative numbers."
	got := grading.GenerateFeedback(partial)
	if !strings.Contains(got, "1 of 2 tests passed") {
		t.Fatalf("summary wrong: %q", got)
	}
	if !strings.Contains(got, "edge case: Remember negative numbers.") {
		t.Fatalf("authored feedback missing: %q", got)
	}

	var empty execution.TestResults
	empty.Recompute()
	if got := grading.GenerateFeedback(empty); !strings.Contains(got, "No tests were run") {
		t.Fatalf("empty suite feedback wrong: %q", got)
	}
}

func TestGenerateFeedbackGenericDiff(t *testing.T) {
	tr := execution.TestResults{
		Results: []execution.TestCaseResult{{
			TestCase:     execution.TestCase{ID: "t1", ExpectedOutput: "4\n", Points: 10},
			ActualOutput: "5\n",
		}},
	}
	tr.Recompute()
	got := grading.GenerateFeedback(tr)
	if !strings.Contains(got, `expected "4\n" but got "5\n"`) {
		t.Fatalf("diff feedback wrong: %q", got)
	}
}
