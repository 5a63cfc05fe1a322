package ranking

import (
	"context"

	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// Catalog is the read side of the candidate store used to build rankings.
type Catalog interface {
	ListRecipes(ctx context.Context) ([]domrecipe.Recipe, error)
	ListIngredients(ctx context.Context, recipe string) ([]domrecipe.Ingredient, error)
}
