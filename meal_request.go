package glycomeal

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/needs"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
	"github.com/kailas-cloud/glycomeal/internal/usecase/recommend"
)

// MealType selects the share of daily energy a profile-based request targets.
type MealType = needs.Meal

// Meal types.
const (
	Breakfast = needs.Breakfast
	Lunch     = needs.Lunch
	Dinner    = needs.Dinner
)

// Profile is a body profile used to derive macro targets.
type Profile = needs.Profile

// Gender selects the basal metabolic rate constant of a Profile.
type Gender = needs.Gender

// MealRequest is a fluent builder for recommendation queries.
// Set either explicit macro targets with Needs or a body profile with ForProfile.
type MealRequest struct {
	client *Client

	needs    *nutrient.Needs
	profile  *Profile
	mealType MealType
	preMeal  float64
}

// Needs sets explicit macro targets in grams.
func (b *MealRequest) Needs(carb, protein, fat float64) *MealRequest {
	b.needs = &nutrient.Needs{Carb: carb, Protein: protein, Fat: fat}
	return b
}

// Fiber adds a fiber target in grams. It only applies together with Needs.
func (b *MealRequest) Fiber(g float64) *MealRequest {
	if b.needs != nil {
		b.needs.Fiber = &g
	}
	return b
}

// ForProfile derives targets from a body profile for the given meal type.
func (b *MealRequest) ForProfile(p Profile, meal MealType) *MealRequest {
	b.profile = &p
	b.mealType = meal
	return b
}

// PreMealGlucose sets the current blood glucose in mmol/L.
func (b *MealRequest) PreMealGlucose(mmol float64) *MealRequest {
	b.preMeal = mmol
	return b
}

func (b *MealRequest) build() (recommend.Request, error) {
	switch {
	case b.needs != nil && b.profile != nil:
		return recommend.Request{}, domain.NewValidationError("needs", "set either needs or a profile, not both")
	case b.needs != nil:
		return recommend.Request{Needs: *b.needs, PreMealGlucose: b.preMeal}, nil
	case b.profile != nil:
		n, err := needs.ForMeal(*b.profile, b.mealType)
		if err != nil {
			return recommend.Request{}, err
		}
		return recommend.Request{Needs: n, PreMealGlucose: b.preMeal}, nil
	default:
		return recommend.Request{}, domain.NewValidationError("needs", "needs or a profile is required")
	}
}

// Do runs the search. A meal is returned even when no combination reached
// the acceptance threshold; check Meal.Accepted.
func (b *MealRequest) Do(ctx context.Context) (Meal, error) {
	if b.client == nil {
		return Meal{}, errors.New("glycomeal: meal request not bound to a client")
	}
	req, err := b.build()
	if err != nil {
		return Meal{}, fmt.Errorf("meal request: %w", err)
	}
	rec, err := b.client.recommend.Recommend(b.client.ctx(ctx), req)
	if err != nil {
		return Meal{}, fmt.Errorf("recommend: %w", err)
	}
	return mealFromDomain(rec), nil
}
