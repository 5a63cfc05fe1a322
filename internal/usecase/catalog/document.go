package catalog

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/glycomeal/internal/domain"
)

// Document is a catalog file: shared ingredient records plus recipes that reference them.
type Document struct {
	Ingredients []IngredientSpec `yaml:"ingredients" json:"ingredients"`
	Recipes     []RecipeSpec     `yaml:"recipes" json:"recipes"`
}

// IngredientSpec is an ingredient record with macros per 100 g.
type IngredientSpec struct {
	Name            string   `yaml:"name" json:"name"`
	Carb            float64  `yaml:"carb" json:"carb"`
	Protein         float64  `yaml:"protein" json:"protein"`
	Fat             float64  `yaml:"fat" json:"fat"`
	Fiber           float64  `yaml:"fiber" json:"fiber"`
	PreferenceScore *float64 `yaml:"preference_score" json:"preference_score,omitempty"`
	Types           []string `yaml:"types" json:"types,omitempty"`
}

// RecipeSpec is a recipe and the grams of each ingredient in one unscaled serving.
type RecipeSpec struct {
	Name            string        `yaml:"name" json:"name"`
	Category        string        `yaml:"category" json:"category"`
	PreferenceScore *float64      `yaml:"preference_score" json:"preference_score,omitempty"`
	Ingredients     []ContainSpec `yaml:"ingredients" json:"ingredients"`
}

// ContainSpec links a recipe to an ingredient.
type ContainSpec struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Parse decodes a YAML catalog. Unknown keys are rejected.
func Parse(r io.Reader) (Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, domain.NewValidationError("catalog", "empty document")
		}
		return Document{}, fmt.Errorf("%w: parse catalog: %w", domain.ErrValidation, err)
	}
	return doc, nil
}
