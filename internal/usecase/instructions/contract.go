package instructions

import (
	"context"

	"github.com/kailas-cloud/glycomeal/internal/usecase/nutrition"
)

// Portioner lists scaled ingredient weights of a recipe.
type Portioner interface {
	Portions(ctx context.Context, recipe string, ratio float64) ([]nutrition.Portion, error)
}
