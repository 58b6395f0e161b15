package grading

import (
	"math"

	"codelab/internal/execution"
	"codelab/internal/exercise"
	appErr "codelab/pkg/errors"
)

// CalculateScore turns a graded suite into a final raw score under the
// exercise's scoring policy. The result is always within
// [0, totalPoints + bonus].
func CalculateScore(results execution.TestResults, policy exercise.Scoring) (int, error) {
	var score int
	switch policy.ResolvedMethod() {
	case exercise.ScoreAllOrNothing:
		if results.AllPassed {
			score = results.TotalPoints
		}

	case exercise.ScorePerTest:
		score = results.EarnedPoints

	case exercise.ScoreWeighted:
		var weighted float64
		for _, r := range results.Results {
			weight := 1.0
			if w, ok := policy.Weights[r.ID]; ok {
				weight = w
			}
			weighted += weight * float64(r.EarnedPoints)
		}
		score = int(math.Round(weighted))

	default:
		return 0, appErr.Newf(appErr.ScoringMethodUnknown, "unknown scoring method: %s", policy.Method)
	}

	if bonus := policy.EfficiencyBonus; bonus != nil && bonus.Points > 0 {
		if results.AllPassed && results.TotalTimeMs < bonus.ThresholdMs {
			score += bonus.Points
		}
	}

	if score < 0 {
		score = 0
	}
	return score, nil
}

// ApplyHintPenalty computes the learner-visible score. It never goes
// negative regardless of how many hints were consumed.
func ApplyHintPenalty(rawScore, hintPenalties int) int {
	if hintPenalties < 0 {
		hintPenalties = 0
	}
	score := rawScore - hintPenalties
	if score < 0 {
		return 0
	}
	return score
}
