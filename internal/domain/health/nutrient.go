package health

import (
	"math"

	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
)

// maxTermPoints is awarded per nutrient on an exact match with the target.
const maxTermPoints = 2.5

// fitTerm scores how close amount is to target: 2.5 on a match, decaying linearly
// with the relative deviation, clamped at zero.
func fitTerm(amount, target float64) float64 {
	if target == 0 {
		if amount == 0 {
			return maxTermPoints
		}
		return 0
	}
	ratio := amount / target
	return math.Max(0, maxTermPoints*(1-math.Abs(ratio-1)))
}

// NutrientScore sums the fit terms of carb, protein and fat. Fiber is not scored.
// Result is in [0, 7.5].
func NutrientScore(p nutrient.Profile, needs nutrient.Needs) float64 {
	return fitTerm(p.Carb, needs.Carb) +
		fitTerm(p.Protein, needs.Protein) +
		fitTerm(p.Fat, needs.Fat)
}
