// Package grading drives an executor across an exercise's test suite and
// turns raw execution results into a defensible score.
package grading

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codelab/internal/execution"
	appErr "codelab/pkg/errors"
	"codelab/pkg/utils/logger"
)

// Pool is the executor access the runner needs; *executor.Registry
// satisfies it.
type Pool interface {
	Initialize(ctx context.Context, language string) error
	Execute(ctx context.Context, language, code, input string, limits execution.Limits) (execution.Result, error)
}

// Runner orchestrates test execution and grading.
type Runner struct {
	pool Pool
}

// NewRunner creates a grading runner over an executor pool.
func NewRunner(pool Pool) *Runner {
	return &Runner{pool: pool}
}

// RunVisibleTests grades only the cases shown to the learner before
// submission. It is the fast "try it" feedback loop.
func (r *Runner) RunVisibleTests(ctx context.Context, code string, testCases []execution.TestCase, language string, limits execution.Limits) (execution.TestResults, error) {
	visible := make([]execution.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		if tc.Visible {
			visible = append(visible, tc)
		}
	}
	return r.runSuite(ctx, code, visible, language, limits)
}

// RunAllTests grades every case including hidden ones. Submission time
// only: hidden results must never reach the learner before grading.
func (r *Runner) RunAllTests(ctx context.Context, code string, testCases []execution.TestCase, language string, limits execution.Limits) (execution.TestResults, error) {
	return r.runSuite(ctx, code, testCases, language, limits)
}

// runSuite executes each case in order. Per-case failures are captured in
// the results, never propagated; only an executor that cannot be
// provisioned aborts the run.
func (r *Runner) runSuite(ctx context.Context, code string, testCases []execution.TestCase, language string, limits execution.Limits) (execution.TestResults, error) {
	if r.pool == nil {
		return execution.TestResults{}, appErr.New(appErr.InternalError).WithMessage("executor pool is not initialized")
	}

	results := execution.TestResults{
		AttemptID: uuid.NewString(),
		Results:   make([]execution.TestCaseResult, 0, len(testCases)),
	}

	if err := r.pool.Initialize(ctx, language); err != nil {
		// No execution can proceed without a ready executor.
		return results, err
	}

	limits = limits.Normalize()
	started := time.Now()

	for _, tc := range testCases {
		results.Results = append(results.Results, r.runCase(ctx, code, tc, language, limits))
	}

	results.Recompute()
	logger.Info(ctx, "test suite finished",
		zap.String("attempt_id", results.AttemptID),
		zap.String("language", language),
		zap.Int("total", results.TotalTests),
		zap.Int("passed", results.PassedTests),
		zap.Duration("elapsed", time.Since(started)))
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, code string, tc execution.TestCase, language string, limits execution.Limits) execution.TestCaseResult {
	caseLimits := limits
	if tc.TimeoutMs > 0 {
		caseLimits.TimeoutMs = tc.TimeoutMs
	}

	tcr := execution.TestCaseResult{TestCase: tc}

	res, err := r.pool.Execute(ctx, language, code, tc.Input, caseLimits)
	if err != nil {
		tcr.Error = err.Error()
		tcr.Feedback = failureFeedback(tc, tcr)
		return tcr
	}

	tcr.ActualOutput = res.Output
	tcr.ExecutionTimeMs = res.ExecutionTimeMs
	tcr.Error = res.Error

	if res.Success || res.ExitCode == execution.ExitOK {
		matched, matchErr := tc.Matches(res.Output)
		if matchErr != nil {
			tcr.Error = "invalid output pattern: " + matchErr.Error()
		} else {
			tcr.Passed = matched && res.Success
		}
	}

	if tcr.Passed {
		tcr.EarnedPoints = tc.Points
	} else {
		tcr.Feedback = failureFeedback(tc, tcr)
	}
	return tcr
}
