package execution

import (
	"regexp"
)

// TestCase is one authored check in an exercise. Hidden cases
// (Visible=false) are withheld from the learner until submission.
type TestCase struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Visible         bool   `json:"visible"`
	Input           string `json:"input"`
	ExpectedOutput  string `json:"expectedOutput"`
	OutputPattern   string `json:"outputPattern,omitempty"`
	Points          int    `json:"points"`
	FailureFeedback string `json:"failureFeedback,omitempty"`
	// TimeoutMs overrides the exercise-level limit when positive.
	TimeoutMs int `json:"timeoutMs,omitempty"`
}

// Matches checks actual output against the case's declared matching mode.
// OutputPattern takes precedence over ExpectedOutput when present.
func (tc TestCase) Matches(actual string) (bool, error) {
	if tc.OutputPattern != "" {
		re, err := regexp.Compile(tc.OutputPattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(actual), nil
	}
	return actual == tc.ExpectedOutput, nil
}

// TestCaseResult extends a test case with its graded outcome.
// EarnedPoints is always within [0, Points].
type TestCaseResult struct {
	TestCase
	Passed          bool   `json:"passed"`
	ActualOutput    string `json:"actualOutput"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
	Error           string `json:"error,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
	EarnedPoints    int    `json:"earnedPoints"`
}

// TestResults aggregates one graded run across a suite.
type TestResults struct {
	AttemptID    string           `json:"attemptId"`
	TotalTests   int              `json:"totalTests"`
	PassedTests  int              `json:"passedTests"`
	TotalPoints  int              `json:"totalPoints"`
	EarnedPoints int              `json:"earnedPoints"`
	AllPassed    bool             `json:"allPassed"`
	TotalTimeMs  int64            `json:"totalTimeMs"`
	Results      []TestCaseResult `json:"results"`
}

// Recompute derives the aggregate fields from Results, restoring the
// invariants earnedPoints = sum(results) and allPassed <=> passed = total.
func (tr *TestResults) Recompute() {
	tr.TotalTests = len(tr.Results)
	tr.PassedTests = 0
	tr.TotalPoints = 0
	tr.EarnedPoints = 0
	tr.TotalTimeMs = 0
	for _, r := range tr.Results {
		if r.Passed {
			tr.PassedTests++
		}
		tr.TotalPoints += r.Points
		tr.EarnedPoints += r.EarnedPoints
		tr.TotalTimeMs += r.ExecutionTimeMs
	}
	tr.AllPassed = tr.TotalTests > 0 && tr.PassedTests == tr.TotalTests
}
