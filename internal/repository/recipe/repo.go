package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/kailas-cloud/glycomeal/internal/db"
	"github.com/kailas-cloud/glycomeal/internal/domain"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// store is the consumer interface for the recipe catalog (ISP).
type store interface {
	WriteHashes(ctx context.Context, writes []db.HashWrite) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HGet(ctx context.Context, key, field string) (string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo is the candidate store: recipes, ingredients and the CONTAINS weights
// that link them, kept as Redis hashes.
type Repo struct {
	store store
}

// New creates a recipe repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ListRecipes returns every recipe sorted by name.
func (r *Repo) ListRecipes(ctx context.Context) ([]domrecipe.Recipe, error) {
	keys, err := r.store.Scan(ctx, recipeKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan recipes: %w", err)
	}
	if len(keys) == 0 {
		return []domrecipe.Recipe{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi recipes: %w", err)
	}

	recipes := make([]domrecipe.Recipe, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		rec, err := recipeFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse recipe %s: %w", keys[i], err)
		}
		recipes = append(recipes, rec)
	}

	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Name() < recipes[j].Name()
	})
	return recipes, nil
}

// Get returns one recipe by name.
func (r *Repo) Get(ctx context.Context, name string) (domrecipe.Recipe, error) {
	m, err := r.store.HGetAll(ctx, recipeKey(name))
	if err != nil {
		return domrecipe.Recipe{}, fmt.Errorf("hgetall recipe %s: %w", name, err)
	}
	if len(m) == 0 {
		return domrecipe.Recipe{}, domain.ErrNotFound
	}
	return recipeFromHash(m)
}

// ListIngredients returns the ingredients linked to a recipe with their
// CONTAINS weights, sorted by name. A recipe without links yields an empty slice.
func (r *Repo) ListIngredients(ctx context.Context, name string) ([]domrecipe.Ingredient, error) {
	links, err := r.store.HGetAll(ctx, containsKey(name))
	if err != nil {
		return nil, fmt.Errorf("hgetall contains %s: %w", name, err)
	}
	if len(links) == 0 {
		return []domrecipe.Ingredient{}, nil
	}

	names := make([]string, 0, len(links))
	for ing := range links {
		names = append(names, ing)
	}
	sort.Strings(names)

	keys := make([]string, len(names))
	for i, ing := range names {
		keys[i] = ingredientKey(ing)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi ingredients of %s: %w", name, err)
	}

	out := make([]domrecipe.Ingredient, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			// dangling link, the ingredient record was never written
			continue
		}
		weight, err := strconv.ParseFloat(links[names[i]], 64)
		if err != nil {
			return nil, fmt.Errorf("parse weight %s/%s: %w", name, names[i], err)
		}
		ing, err := ingredientFromHash(names[i], m, weight)
		if err != nil {
			return nil, fmt.Errorf("parse ingredient %s: %w", names[i], err)
		}
		out = append(out, ing)
	}
	return out, nil
}

// CurrentScore returns the stored preference score of a recipe.
func (r *Repo) CurrentScore(ctx context.Context, name string) (float64, error) {
	v, err := r.store.HGet(ctx, recipeKey(name), fieldScore)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("hget score %s: %w", name, err)
	}
	score, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %s: %w", name, err)
	}
	return score, nil
}

// WriteScores stores the new recipe score and ingredient scores in one transaction.
func (r *Repo) WriteScores(ctx context.Context, name string, score float64, ingredients map[string]float64) error {
	items := make([]db.HashWrite, 0, len(ingredients)+1)
	items = append(items, db.HashWrite{
		Key:    recipeKey(name),
		Fields: map[string]string{fieldScore: formatFloat(score)},
	})

	names := make([]string, 0, len(ingredients))
	for ing := range ingredients {
		names = append(names, ing)
	}
	sort.Strings(names)
	for _, ing := range names {
		items = append(items, db.HashWrite{
			Key:    ingredientKey(ing),
			Fields: map[string]string{fieldScore: formatFloat(ingredients[ing])},
		})
	}

	if err := r.store.WriteHashes(ctx, items); err != nil {
		return fmt.Errorf("write scores %s: %w", name, err)
	}
	return nil
}

// Put writes a recipe and its ingredient records, and replaces its CONTAINS
// links, all in one transaction. A preference score already stored for the
// recipe or an ingredient is kept: re-importing a catalog never resets what
// ratings have learned.
func (r *Repo) Put(ctx context.Context, rec domrecipe.Recipe, ingredients []domrecipe.Ingredient) error {
	items := make([]db.HashWrite, 0, len(ingredients)+2)
	items = append(items, keepScore(recipeKey(rec.Name()), recipeToHash(rec)))

	links := make(map[string]string, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, keepScore(ingredientKey(ing.Name), ingredientToHash(ing)))
		links[ing.Name] = formatFloat(ing.Weight)
	}
	items = append(items, db.HashWrite{Key: containsKey(rec.Name()), Fields: links, Replace: true})

	if err := r.store.WriteHashes(ctx, items); err != nil {
		return fmt.Errorf("put recipe %s: %w", rec.Name(), err)
	}
	return nil
}

// keepScore moves the preference score from Fields to Defaults.
func keepScore(key string, fields map[string]string) db.HashWrite {
	w := db.HashWrite{Key: key, Fields: fields}
	if v, ok := fields[fieldScore]; ok {
		delete(fields, fieldScore)
		w.Defaults = map[string]string{fieldScore: v}
	}
	return w
}

// Redis key patterns: glycomeal:recipe:{name}, glycomeal:ingredient:{name},
// glycomeal:contains:{recipe}.

func recipeKey(name string) string {
	return fmt.Sprintf("%srecipe:%s", domain.KeyPrefix, name)
}

func ingredientKey(name string) string {
	return fmt.Sprintf("%singredient:%s", domain.KeyPrefix, name)
}

func containsKey(recipe string) string {
	return fmt.Sprintf("%scontains:%s", domain.KeyPrefix, recipe)
}
