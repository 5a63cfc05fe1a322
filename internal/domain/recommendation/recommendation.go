// Package recommendation describes the outcome of one meal search.
package recommendation

import (
	"github.com/kailas-cloud/glycomeal/internal/domain/health"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
)

// Outcome is the terminal state of a search.
type Outcome string

// Search outcomes.
const (
	// Accepted means a combination reached the acceptance threshold.
	Accepted Outcome = "accepted"
	// Exhausted means the attempt budget ran out; the last evaluated combination is returned.
	Exhausted Outcome = "exhausted"
)

// Combination is one evaluated meal: recipe names in role order, their serving ratios,
// the scaled nutrition and the score breakdown.
type Combination struct {
	Recipes   [3]string
	Ratios    nutrient.Ratios
	Nutrition nutrient.Profile
	Score     health.Score
}

// Recommendation is what a search returns to its caller.
type Recommendation struct {
	Combination
	Outcome  Outcome
	Attempts int
}

// ThresholdMet reports whether the returned combination reached the acceptance threshold.
func (r Recommendation) ThresholdMet() bool {
	return r.Outcome == Accepted
}

// Energy returns the meal energy in kcal.
func (r Recommendation) Energy() float64 {
	return r.Nutrition.Energy()
}

// PredictedGlucose120 returns the 120-minute prediction.
func (r Recommendation) PredictedGlucose120() float64 {
	return r.Score.Predicted[1]
}
