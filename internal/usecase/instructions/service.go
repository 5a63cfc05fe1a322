// Package instructions turns a recommended meal into cooking instructions via a chat model.
package instructions

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/needs"
	"github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/usecase/nutrition"
)

// MaxRecipes bounds how many dishes one prompt may describe.
const MaxRecipes = 3

const systemPrompt = "You are a dietitian who writes cooking instructions for people with diabetes. " +
	"Keep every listed weight exactly as given, avoid added sugar, and answer with numbered steps per dish."

// Request names the served recipes and their serving ratios.
type Request struct {
	Recipes  []string
	Ratios   []float64
	MealType needs.Meal
}

// Dish is one recipe with its scaled portions.
type Dish struct {
	Recipe   string              `json:"recipe"`
	Ratio    float64             `json:"ratio"`
	Portions []nutrition.Portion `json:"portions"`
}

// Result is the generated text plus the portions it was generated from.
type Result struct {
	Text   string `json:"instructions"`
	Dishes []Dish `json:"dishes"`
}

// Service builds prompts and calls the completer. A nil completer disables it.
type Service struct {
	portions  Portioner
	completer domain.ChatCompleter
}

// New creates the instructions service.
func New(portions Portioner, completer domain.ChatCompleter) *Service {
	return &Service{portions: portions, completer: completer}
}

// Enabled reports whether a chat model is configured.
func (s *Service) Enabled() bool {
	return s.completer != nil
}

// Generate validates the request, lists the scaled portions and asks the model for instructions.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if s.completer == nil {
		return Result{}, fmt.Errorf("cooking instructions: %w", domain.ErrNotImplemented)
	}
	if err := validate(req); err != nil {
		return Result{}, err
	}

	dishes := make([]Dish, len(req.Recipes))
	for i, name := range req.Recipes {
		ps, err := s.portions.Portions(ctx, name, req.Ratios[i])
		if err != nil {
			return Result{}, fmt.Errorf("portions: %w", err)
		}
		dishes[i] = Dish{Recipe: name, Ratio: req.Ratios[i], Portions: ps}
	}

	res, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(req.MealType, dishes))
	if err != nil {
		return Result{}, fmt.Errorf("generate instructions: %w", err)
	}

	logger.FromContext(ctx).Info("instructions generated",
		zap.Strings("recipes", req.Recipes),
		zap.Int("tokens", res.TotalTokens),
	)
	return Result{Text: res.Text, Dishes: dishes}, nil
}

func validate(req Request) error {
	if len(req.Recipes) == 0 || len(req.Recipes) > MaxRecipes {
		return domain.NewValidationError("recipes", fmt.Sprintf("must list 1 to %d recipes", MaxRecipes))
	}
	if len(req.Ratios) != len(req.Recipes) {
		return domain.NewValidationError("ratios", "must have one ratio per recipe")
	}
	for i, r := range req.Ratios {
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return domain.NewValidationError(fmt.Sprintf("ratios[%d]", i), "must be a positive number")
		}
		if strings.TrimSpace(req.Recipes[i]) == "" {
			return domain.NewValidationError(fmt.Sprintf("recipes[%d]", i), "must not be empty")
		}
	}
	if req.MealType != "" && !req.MealType.IsValid() {
		return domain.NewValidationError("meal_type", fmt.Sprintf("unknown meal %q", req.MealType))
	}
	return nil
}

// buildPrompt lists every dish with ingredient weights truncated to whole grams.
func buildPrompt(meal needs.Meal, dishes []Dish) string {
	var b strings.Builder
	if meal != "" {
		fmt.Fprintf(&b, "Write cooking instructions for a diabetes-friendly %s made of these dishes.\n", meal)
	} else {
		b.WriteString("Write cooking instructions for a diabetes-friendly meal made of these dishes.\n")
	}
	for _, d := range dishes {
		fmt.Fprintf(&b, "\n%s:\n", d.Recipe)
		for _, p := range d.Portions {
			fmt.Fprintf(&b, "- %s %dg\n", p.Ingredient, int(p.Grams))
		}
	}
	return b.String()
}
