// Package nutrition computes recipe nutrient profiles from current store state.
package nutrition

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// Ingredients is the slice of the candidate store the aggregator reads.
type Ingredients interface {
	ListIngredients(ctx context.Context, recipe string) ([]domrecipe.Ingredient, error)
}

// Portion is one ingredient of a scaled recipe in grams.
type Portion struct {
	Ingredient string
	Grams      float64
}

// Aggregator sums ingredient macros into recipe profiles. Nothing is cached
// between calls so score updates and catalog writes are always visible.
type Aggregator struct {
	store Ingredients
}

// New creates an aggregator.
func New(store Ingredients) *Aggregator {
	return &Aggregator{store: store}
}

// Profile returns the recipe's nutrients at the given serving ratio:
// Σ content_per_100g × weight × ratio / 100. A recipe without ingredients yields zeros.
func (a *Aggregator) Profile(ctx context.Context, recipe string, ratio float64) (nutrient.Profile, error) {
	ings, err := a.store.ListIngredients(ctx, recipe)
	if err != nil {
		return nutrient.Profile{}, fmt.Errorf("ingredients of %s: %w", recipe, err)
	}

	var p nutrient.Profile
	for _, ing := range ings {
		grams := ing.Weight * ratio
		p = p.Add(nutrient.Profile{
			Carb:    ing.Carb * grams / 100,
			Protein: ing.Protein * grams / 100,
			Fat:     ing.Fat * grams / 100,
			Fiber:   ing.Fiber * grams / 100,
		})
	}
	return p, nil
}

// Portions lists the ingredient weights of a recipe scaled by ratio.
func (a *Aggregator) Portions(ctx context.Context, recipe string, ratio float64) ([]Portion, error) {
	ings, err := a.store.ListIngredients(ctx, recipe)
	if err != nil {
		return nil, fmt.Errorf("ingredients of %s: %w", recipe, err)
	}
	out := make([]Portion, len(ings))
	for i, ing := range ings {
		out[i] = Portion{Ingredient: ing.Name, Grams: ing.Weight * ratio}
	}
	return out, nil
}
