package catalog

import (
	"context"

	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// Writer stores a recipe with its ingredients and CONTAINS weights.
type Writer interface {
	Put(ctx context.Context, rec domrecipe.Recipe, ingredients []domrecipe.Ingredient) error
}

// Rebuilder reloads the rankings from the store.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}
