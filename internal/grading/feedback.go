package grading

import (
	"fmt"
	"strings"

	"codelab/internal/execution"
)

// GenerateFeedback produces a short natural-language summary of a suite
// plus one line per failing test.
func GenerateFeedback(results execution.TestResults) string {
	var b strings.Builder

	switch {
	case results.TotalTests == 0:
		return "No tests were run."
	case results.AllPassed:
		fmt.Fprintf(&b, "All %d tests passed. Nice work!", results.TotalTests)
		return b.String()
	default:
		fmt.Fprintf(&b, "%d of %d tests passed.", results.PassedTests, results.TotalTests)
	}

	for _, r := range results.Results {
		if r.Passed {
			continue
		}
		name := r.Name
		if name == "" {
			name = r.ID
		}
		fmt.Fprintf(&b, "\n- %s: %s", name, failureFeedback(r.TestCase, r))
	}
	return b.String()
}

// failureFeedback picks the test's authored feedback when present, and
// otherwise builds a generic diff-oriented message.
func failureFeedback(tc execution.TestCase, r execution.TestCaseResult) string {
	if tc.FailureFeedback != "" {
		return tc.FailureFeedback
	}
	if r.Error != "" {
		return r.Error
	}
	if tc.OutputPattern != "" {
		return fmt.Sprintf("output did not match the expected pattern %q", tc.OutputPattern)
	}
	return fmt.Sprintf("expected %q but got %q", tc.ExpectedOutput, r.ActualOutput)
}
