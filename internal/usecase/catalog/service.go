package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/logger"
)

// MaxBatchSize is the maximum number of recipes per import.
const MaxBatchSize = 500

// Default preference score for records that do not declare one.
const defaultPreferenceScore = 0.6

// Service imports catalog documents into the candidate store.
type Service struct {
	writer       Writer
	rankings     Rebuilder
	maxBatchSize int
}

// New creates a catalog import service.
func New(writer Writer, rankings Rebuilder) *Service {
	return &Service{writer: writer, rankings: rankings, maxBatchSize: MaxBatchSize}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Import validates and writes every recipe, reporting one result per recipe,
// then rebuilds the rankings if anything was written. The returned error is
// only set when the rebuild itself fails.
func (s *Service) Import(ctx context.Context, doc Document) ([]dombatch.Result, error) {
	results := make([]dombatch.Result, len(doc.Recipes))

	if len(doc.Recipes) > s.maxBatchSize {
		for i, spec := range doc.Recipes {
			results[i] = dombatch.NewError(spec.Name,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrValidation))
		}
		return results, nil
	}

	ingredients := make(map[string]domrecipe.Ingredient, len(doc.Ingredients))
	badIngredients := make(map[string]error)
	for _, spec := range doc.Ingredients {
		ing, err := spec.toDomain()
		if err != nil {
			badIngredients[spec.Name] = err
			continue
		}
		ingredients[spec.Name] = ing
	}

	for i, spec := range doc.Recipes {
		rec, ings, err := resolve(spec, ingredients, badIngredients)
		if err != nil {
			results[i] = dombatch.NewError(spec.Name, err)
			continue
		}
		if err := s.writer.Put(ctx, rec, ings); err != nil {
			results[i] = dombatch.NewError(spec.Name, fmt.Errorf("put: %w", err))
			continue
		}
		results[i] = dombatch.NewOK(spec.Name)
	}

	ok := dombatch.Succeeded(results)
	logger.FromContext(ctx).Info("catalog imported",
		zap.Int("recipes", len(results)),
		zap.Int("succeeded", ok),
		zap.Int("failed", len(results)-ok),
	)

	if ok > 0 {
		if err := s.rankings.Rebuild(ctx); err != nil {
			return results, fmt.Errorf("rebuild rankings: %w", err)
		}
	}
	return results, nil
}

func resolve(
	spec RecipeSpec,
	ingredients map[string]domrecipe.Ingredient,
	bad map[string]error,
) (domrecipe.Recipe, []domrecipe.Ingredient, error) {
	score := defaultPreferenceScore
	if spec.PreferenceScore != nil {
		score = *spec.PreferenceScore
	}
	rec, err := domrecipe.New(spec.Name, domrecipe.Category(spec.Category), score)
	if err != nil {
		return domrecipe.Recipe{}, nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	out := make([]domrecipe.Ingredient, 0, len(spec.Ingredients))
	seen := make(map[string]struct{}, len(spec.Ingredients))
	for _, c := range spec.Ingredients {
		if err, ok := bad[c.Name]; ok {
			return domrecipe.Recipe{}, nil, err
		}
		ing, ok := ingredients[c.Name]
		if !ok {
			return domrecipe.Recipe{}, nil, fmt.Errorf("unknown ingredient %q: %w", c.Name, domain.ErrValidation)
		}
		if _, dup := seen[c.Name]; dup {
			return domrecipe.Recipe{}, nil, fmt.Errorf("ingredient %q listed twice: %w", c.Name, domain.ErrValidation)
		}
		seen[c.Name] = struct{}{}
		ing.Weight = c.Weight
		if err := ing.Validate(); err != nil {
			return domrecipe.Recipe{}, nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		out = append(out, ing)
	}
	return rec, out, nil
}

func (spec IngredientSpec) toDomain() (domrecipe.Ingredient, error) {
	score := defaultPreferenceScore
	if spec.PreferenceScore != nil {
		score = *spec.PreferenceScore
	}
	ing := domrecipe.Ingredient{
		Name:            spec.Name,
		Carb:            spec.Carb,
		Protein:         spec.Protein,
		Fat:             spec.Fat,
		Fiber:           spec.Fiber,
		PreferenceScore: score,
	}
	for _, t := range spec.Types {
		it := domrecipe.IngredientType(t)
		if it != domrecipe.TypeProteinRich && it != domrecipe.TypeVegetable && it != domrecipe.TypeStaple {
			return domrecipe.Ingredient{}, fmt.Errorf("ingredient %q: unknown type %q: %w", spec.Name, t, domain.ErrValidation)
		}
		ing.Types = append(ing.Types, it)
	}
	if err := ing.Validate(); err != nil {
		return domrecipe.Ingredient{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return ing, nil
}
