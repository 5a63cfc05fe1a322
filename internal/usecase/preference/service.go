package preference

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain/feedback"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/metrics"
)

// maxLockAttempts bounds how often lockRecipe chases a changing ingredient list.
const maxLockAttempts = 5

// defaultIngredientScore stands in for the ingredient average of a recipe with no ingredients.
const defaultIngredientScore = 0.6

// Result reports the scores written by one Apply.
type Result struct {
	Recipe      string             `json:"recipe"`
	Score       float64            `json:"score"`
	Ingredients map[string]float64 `json:"ingredients"`
	// Reranked is false when the recipe is not held by any ranking.
	Reranked bool `json:"reranked"`
}

// Service applies user ratings to recipe and ingredient preference scores.
type Service struct {
	store    Store
	rankings Rankings
	locks    *keyedMutex
}

// New creates a preference updater.
func New(store Store, rankings Rankings) *Service {
	return &Service{store: store, rankings: rankings, locks: newKeyedMutex()}
}

// Apply folds a rating into the recipe and its ingredients:
// each ingredient moves halfway to the rating, then the recipe becomes the mean
// of its old score, the rating and the new ingredient average. Invalid ratings
// and unknown recipes change nothing.
func (s *Service) Apply(ctx context.Context, recipe string, rating float64) (Result, error) {
	if err := feedback.ValidateRating(rating); err != nil {
		return Result{}, err
	}

	ings, unlock, err := s.lockRecipe(ctx, recipe)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	current, err := s.store.CurrentScore(ctx, recipe)
	if err != nil {
		return Result{}, fmt.Errorf("score of %s: %w", recipe, err)
	}

	updated := make(map[string]float64, len(ings))
	sum := 0.0
	for _, ing := range ings {
		v := (ing.PreferenceScore + rating) / 2
		updated[ing.Name] = v
		sum += v
	}
	avg := defaultIngredientScore
	if len(ings) > 0 {
		avg = sum / float64(len(ings))
	}
	score := (current + rating + avg) / 3

	if err := s.store.WriteScores(ctx, recipe, score, updated); err != nil {
		return Result{}, fmt.Errorf("write scores of %s: %w", recipe, err)
	}
	reranked := s.rankings.Update(recipe, score)
	metrics.FeedbackTotal.WithLabelValues("rating").Inc()

	logger.FromContext(ctx).Info("preference updated",
		zap.String("recipe", recipe),
		zap.Float64("rating", rating),
		zap.Float64("old_score", current),
		zap.Float64("new_score", score),
		zap.Bool("reranked", reranked),
	)
	return Result{Recipe: recipe, Score: score, Ingredients: updated, Reranked: reranked}, nil
}

// lockRecipe locks the recipe and every ingredient it links, since ingredients
// are shared between recipes. The links are read again under the lock; if a
// concurrent import changed them, the locks are dropped and taken again.
func (s *Service) lockRecipe(ctx context.Context, recipe string) ([]domrecipe.Ingredient, func(), error) {
	ings, err := s.store.ListIngredients(ctx, recipe)
	if err != nil {
		return nil, nil, fmt.Errorf("list ingredients of %s: %w", recipe, err)
	}
	for attempt := 1; ; attempt++ {
		unlock := s.locks.Lock(lockKeys(recipe, ings)...)
		locked, err := s.store.ListIngredients(ctx, recipe)
		if err != nil {
			unlock()
			return nil, nil, fmt.Errorf("list ingredients of %s: %w", recipe, err)
		}
		if sameIngredients(ings, locked) {
			return locked, unlock, nil
		}
		unlock()
		if attempt == maxLockAttempts {
			return nil, nil, fmt.Errorf("ingredients of %s changed %d times while locking", recipe, attempt)
		}
		ings = locked
	}
}

func lockKeys(recipe string, ings []domrecipe.Ingredient) []string {
	keys := make([]string, 0, len(ings)+1)
	keys = append(keys, "recipe:"+recipe)
	for _, ing := range ings {
		keys = append(keys, "ingredient:"+ing.Name)
	}
	return keys
}

// sameIngredients compares names only; both lists come back sorted by name.
func sameIngredients(a, b []domrecipe.Ingredient) bool {
	return slices.EqualFunc(a, b, func(x, y domrecipe.Ingredient) bool { return x.Name == y.Name })
}
