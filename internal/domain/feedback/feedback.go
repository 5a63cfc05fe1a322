// Package feedback holds user ratings and measured glucose readings.
package feedback

import (
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
)

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 10
)

// ValidateRating rejects non-finite ratings and ratings outside [0, 10].
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return domain.NewValidationError("rating", "must be a number")
	}
	if rating < MinRating || rating > MaxRating {
		return domain.NewValidationError("rating", fmt.Sprintf("must be between %d and %d, got %g", MinRating, MaxRating, rating))
	}
	return nil
}

// Rating is a user's score for one served recipe.
type Rating struct {
	Recipe string  `json:"recipe"`
	Value  float64 `json:"rating"`
}

// GlucoseEntry is one measured postprandial response, kept for predictor retraining.
type GlucoseEntry struct {
	ID             string
	PreMealGlucose float64
	Nutrition      nutrient.Profile
	Post60         float64
	Post120        float64
	Post180        float64
	RecordedAt     time.Time
}

// Validate checks that readings are finite and non-negative.
func (e GlucoseEntry) Validate() error {
	readings := []struct {
		name string
		v    float64
	}{
		{"pre_meal_glucose", e.PreMealGlucose},
		{"post_meal_glucose_60", e.Post60},
		{"post_meal_glucose_120", e.Post120},
		{"post_meal_glucose_180", e.Post180},
		{"nutrition.carb", e.Nutrition.Carb},
		{"nutrition.protein", e.Nutrition.Protein},
		{"nutrition.fat", e.Nutrition.Fat},
		{"nutrition.fiber", e.Nutrition.Fiber},
	}
	for _, r := range readings {
		if math.IsNaN(r.v) || math.IsInf(r.v, 0) || r.v < 0 {
			return domain.NewValidationError(r.name, "must be a non-negative number")
		}
	}
	return nil
}
