// Package recipe holds the recipe and ingredient records the engine ranks and scales.
package recipe

import (
	"fmt"
	"math"
	"strings"
)

// Category is the declared recipe category as stored in the catalog.
type Category string

// Declared recipe categories.
const (
	CategoryStaple    Category = "Staple"
	CategoryVegetable Category = "Vegetable-dominant"
	CategoryProtein   Category = "Protein-dominant"
)

// IsValid checks if the category is one of the declared values.
func (c Category) IsValid() bool {
	return c == CategoryStaple || c == CategoryVegetable || c == CategoryProtein
}

// IngredientType is a type tag carried by an ingredient.
type IngredientType string

// Ingredient type tags used for ranking classification.
const (
	TypeProteinRich IngredientType = "Protein-rich"
	TypeVegetable   IngredientType = "Vegetable"
	TypeStaple      IngredientType = "Staple"
)

const maxNameLen = 128

// Recipe is a catalog recipe (immutable value object).
type Recipe struct {
	name            string
	category        Category
	preferenceScore float64
}

// New validates and creates a Recipe.
func New(name string, category Category, preferenceScore float64) (Recipe, error) {
	if err := ValidateName(name); err != nil {
		return Recipe{}, err
	}
	if !category.IsValid() {
		return Recipe{}, fmt.Errorf("invalid recipe category: %q", category)
	}
	if math.IsNaN(preferenceScore) || math.IsInf(preferenceScore, 0) {
		return Recipe{}, fmt.Errorf("preference score must be finite")
	}
	return Recipe{name: name, category: category, preferenceScore: preferenceScore}, nil
}

// Reconstruct hydrates a Recipe from storage without validation.
func Reconstruct(name string, category Category, preferenceScore float64) Recipe {
	return Recipe{name: name, category: category, preferenceScore: preferenceScore}
}

// Name returns the unique recipe name.
func (r Recipe) Name() string { return r.name }

// Category returns the declared category.
func (r Recipe) Category() Category { return r.category }

// PreferenceScore returns the stored preference score.
func (r Recipe) PreferenceScore() float64 { return r.preferenceScore }

// WithScore returns a copy with a new preference score.
func (r Recipe) WithScore(score float64) Recipe {
	r.preferenceScore = score
	return r
}

// Ingredient is an ingredient as linked to one recipe: its per-100g macros plus the
// CONTAINS weight in grams for an unscaled serving.
type Ingredient struct {
	Name            string
	Carb            float64
	Protein         float64
	Fat             float64
	Fiber           float64
	PreferenceScore float64
	Types           []IngredientType
	Weight          float64
}

// HasType reports whether the ingredient carries the given type tag.
func (i Ingredient) HasType(t IngredientType) bool {
	for _, tt := range i.Types {
		if tt == t {
			return true
		}
	}
	return false
}

// Validate checks macro content and weight for a catalog write.
func (i Ingredient) Validate() error {
	if err := ValidateName(i.Name); err != nil {
		return fmt.Errorf("ingredient: %w", err)
	}
	values := map[string]float64{
		"carb": i.Carb, "protein": i.Protein, "fat": i.Fat, "fiber": i.Fiber, "weight": i.Weight,
	}
	for field, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("ingredient %q: %s must be a non-negative number", i.Name, field)
		}
	}
	if i.Carb+i.Protein+i.Fat+i.Fiber > 100 {
		return fmt.Errorf("ingredient %q: macro content exceeds 100g per 100g", i.Name)
	}
	return nil
}

// ValidateName checks a recipe or ingredient name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("name too long (max %d)", maxNameLen)
	}
	if strings.ContainsAny(name, "*?[]\n") {
		return fmt.Errorf("name contains reserved characters")
	}
	return nil
}
