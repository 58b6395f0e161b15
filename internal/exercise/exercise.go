// Package exercise defines the authored exercise contract consumed by the
// grading runner. Definitions are authored externally and immutable here.
package exercise

import (
	"encoding/json"
	"os"

	"codelab/internal/execution"
	appErr "codelab/pkg/errors"
)

// ScoringMethod selects how a suite's earned points become a score.
type ScoringMethod string

const (
	ScoreAllOrNothing ScoringMethod = "all_or_nothing"
	ScorePerTest      ScoringMethod = "per_test"
	ScoreWeighted     ScoringMethod = "weighted"
)

// Editor holds the code-editor fields the engine cares about.
type Editor struct {
	StarterCode string `json:"starterCode"`
}

// EfficiencyBonus awards extra points when the suite's total execution
// time stays under the threshold.
type EfficiencyBonus struct {
	ThresholdMs int64 `json:"thresholdMs"`
	Points      int   `json:"points"`
}

// Scoring is the exercise-authored scoring policy.
type Scoring struct {
	Method ScoringMethod `json:"method"`
	// Weights maps test case IDs to multipliers for ScoreWeighted.
	// Missing entries default to 1.
	Weights         map[string]float64 `json:"weights,omitempty"`
	EfficiencyBonus *EfficiencyBonus   `json:"efficiencyBonus,omitempty"`
}

// Hint is one progressive hint. Revealing it costs Penalty points off the
// final score.
type Hint struct {
	Text    string `json:"text"`
	Penalty int    `json:"penalty"`
}

// Exercise is one authored coding exercise.
type Exercise struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Language  string               `json:"language"`
	Editor    Editor               `json:"editor"`
	TestCases []execution.TestCase `json:"testCases"`
	Hints     []Hint               `json:"hints,omitempty"`
	// Limits partially overrides the default profile; zero fields fall
	// back to defaults.
	Limits  execution.Limits `json:"limits"`
	Scoring Scoring          `json:"scoring"`
}

// Load parses an exercise definition file.
func Load(path string) (Exercise, error) {
	var ex Exercise
	data, err := os.ReadFile(path)
	if err != nil {
		return Exercise{}, appErr.Wrapf(err, appErr.ExerciseNotFound, "read exercise failed")
	}
	if err := json.Unmarshal(data, &ex); err != nil {
		return Exercise{}, appErr.Wrapf(err, appErr.ExerciseInvalid, "parse exercise failed")
	}
	if err := ex.Validate(); err != nil {
		return Exercise{}, err
	}
	return ex, nil
}

// Validate checks the definition is gradeable.
func (ex Exercise) Validate() error {
	if ex.ID == "" {
		return appErr.ValidationError("id", "required")
	}
	if ex.Language == "" {
		return appErr.ValidationError("language", "required")
	}
	if len(ex.TestCases) == 0 {
		return appErr.New(appErr.NoTestCases)
	}
	for _, tc := range ex.TestCases {
		if tc.ID == "" {
			return appErr.ValidationError("testCases.id", "required")
		}
		if tc.Points < 0 {
			return appErr.ValidationError("testCases.points", "must not be negative")
		}
	}
	for _, h := range ex.Hints {
		if h.Penalty < 0 {
			return appErr.ValidationError("hints.penalty", "must not be negative")
		}
	}
	switch ex.Scoring.Method {
	case "", ScoreAllOrNothing, ScorePerTest, ScoreWeighted:
	default:
		return appErr.Newf(appErr.ScoringMethodUnknown, "unknown scoring method: %s", ex.Scoring.Method)
	}
	return nil
}

// EffectiveLimits resolves the exercise limits against the default profile.
func (ex Exercise) EffectiveLimits() execution.Limits {
	return ex.Limits.Normalize()
}

// ResolvedMethod resolves the scoring method, defaulting to per-test.
func (s Scoring) ResolvedMethod() ScoringMethod {
	if s.Method == "" {
		return ScorePerTest
	}
	return s.Method
}
