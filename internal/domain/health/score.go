package health

import (
	"math"

	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
)

// AcceptanceThreshold is the minimum composite score for a meal to be accepted.
const AcceptanceThreshold = 0.7

// Score is the full breakdown of a meal evaluation.
type Score struct {
	Health    float64
	Glucose   float64
	Nutrient  float64
	Predicted Prediction
}

// Accepted reports whether the composite meets the acceptance threshold.
func (s Score) Accepted() bool {
	return s.Health >= AcceptanceThreshold
}

// Composite combines the two partial scores as glucose × log10(nutrient).
// A nutrient score of 1 or less would make the logarithm zero or negative,
// so it collapses the composite to 0.
func Composite(glucose, nutrientScore float64) float64 {
	if nutrientScore <= 1 {
		return 0
	}
	return glucose * math.Log10(nutrientScore)
}

// Scorer evaluates a scaled meal profile against its target and prediction.
type Scorer struct{}

// Score computes the composite health score. Pure; never mutates its inputs.
func (Scorer) Score(p nutrient.Profile, needs nutrient.Needs, predicted Prediction) Score {
	g := GlucoseScore(predicted)
	n := NutrientScore(p, needs)
	return Score{
		Health:    Composite(g, n),
		Glucose:   g,
		Nutrient:  n,
		Predicted: predicted,
	}
}
