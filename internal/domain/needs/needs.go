// Package needs derives per-meal macro targets from a user's body profile.
package needs

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
)

// Meal is a meal occasion.
type Meal string

// Meal occasions.
const (
	Breakfast Meal = "breakfast"
	Lunch     Meal = "lunch"
	Dinner    Meal = "dinner"
)

// IsValid checks if the meal is known.
func (m Meal) IsValid() bool {
	return m == Breakfast || m == Lunch || m == Dinner
}

// Share returns the fraction of daily energy assigned to the meal.
func (m Meal) Share() float64 {
	switch m {
	case Breakfast, Dinner:
		return 0.3
	case Lunch:
		return 0.4
	default:
		return 0
	}
}

// Gender selects the BMR constant.
type Gender string

// Genders.
const (
	Male   Gender = "male"
	Female Gender = "female"
)

// activityFactors multiply BMR into total daily energy expenditure.
var activityFactors = map[string]float64{
	"sedentary":         1.2,
	"lightly_active":    1.375,
	"moderately_active": 1.55,
	"very_active":       1.725,
	"extra_active":      1.9,
}

const defaultActivityFactor = 1.2

// Energy split of a meal across macros.
const (
	carbEnergyShare    = 0.5
	proteinEnergyShare = 0.2
	fatEnergyShare     = 0.3
)

// Profile is the body profile a recommendation request may carry instead of explicit needs.
type Profile struct {
	HeightCm      float64 `json:"height"`
	WeightKg      float64 `json:"weight"`
	AgeYears      float64 `json:"age"`
	Gender        Gender  `json:"gender"`
	ActivityLevel string  `json:"activity_level"`
}

// Validate checks the profile fields.
func (p Profile) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{{"height", p.HeightCm}, {"weight", p.WeightKg}, {"age", p.AgeYears}}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v <= 0 {
			return domain.NewValidationError("profile."+c.name, "must be a positive number")
		}
	}
	if p.Gender != Male && p.Gender != Female {
		return domain.NewValidationError("profile.gender", fmt.Sprintf("must be male or female, got %q", p.Gender))
	}
	return nil
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func (p Profile) BMR() float64 {
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*p.AgeYears
	if p.Gender == Male {
		return base + 5
	}
	return base - 161
}

// TDEE is total daily energy expenditure. Unknown activity levels count as sedentary.
func (p Profile) TDEE() float64 {
	f, ok := activityFactors[p.ActivityLevel]
	if !ok {
		f = defaultActivityFactor
	}
	return p.BMR() * f
}

// ForMeal splits the meal's energy budget into macro grams.
func ForMeal(p Profile, meal Meal) (nutrient.Needs, error) {
	if err := p.Validate(); err != nil {
		return nutrient.Needs{}, err
	}
	if !meal.IsValid() {
		return nutrient.Needs{}, domain.NewValidationError("meal_type", fmt.Sprintf("unknown meal %q", meal))
	}
	return FromEnergy(p.TDEE() * meal.Share()), nil
}

// FromEnergy splits a kcal budget into macro grams (50% carb, 20% protein, 30% fat).
func FromEnergy(kcal float64) nutrient.Needs {
	return nutrient.Needs{
		Carb:    kcal * carbEnergyShare / nutrient.KcalPerGramCarb,
		Protein: kcal * proteinEnergyShare / nutrient.KcalPerGramProtein,
		Fat:     kcal * fatEnergyShare / nutrient.KcalPerGramFat,
	}
}
