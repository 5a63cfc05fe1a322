package preference

import (
	"context"

	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// Store is the candidate store surface the updater reads and writes.
type Store interface {
	CurrentScore(ctx context.Context, recipe string) (float64, error)
	ListIngredients(ctx context.Context, recipe string) ([]domrecipe.Ingredient, error)
	WriteScores(ctx context.Context, recipe string, score float64, ingredients map[string]float64) error
}

// Rankings relocates a recipe after its score changed.
type Rankings interface {
	Update(name string, score float64) bool
}
