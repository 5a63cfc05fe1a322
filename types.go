package glycomeal

import (
	"github.com/kailas-cloud/glycomeal/internal/domain"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	"github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/domain/recommendation"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
	"github.com/kailas-cloud/glycomeal/internal/usecase/ranking"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrValidation       = domain.ErrValidation
	ErrNoStaples        = domain.ErrNoStaples
	ErrPredictorFailure = domain.ErrPredictorFailure
	ErrNotImplemented   = domain.ErrNotImplemented
)

// Role is the slot a recipe fills in a meal.
type Role = recipe.Role

// Meal roles in assembly order.
const (
	RoleStaple    = recipe.RoleStaple
	RoleVegetable = recipe.RoleVegetable
	RoleProtein   = recipe.RoleProtein
)

// Dish is one recipe of a recommended meal with its serving ratio.
type Dish struct {
	Recipe string
	Ratio  float64
}

// Meal is a recommended combination and its score breakdown.
type Meal struct {
	Dishes           []Dish
	HealthScore      float64
	GlucoseScore     float64
	NutrientScore    float64
	PredictedGlucose [3]float64 // 60, 120, 180 minutes
	Energy           float64
	Carb             float64
	Protein          float64
	Fat              float64
	Fiber            float64
	Attempts         int
	// Accepted is false when the search ran out of attempts.
	Accepted bool
}

// Rating is the outcome of rating one recipe.
type Rating struct {
	Recipe      string
	Score       float64
	Ingredients map[string]float64
}

// RankedRecipe is one entry of a ranking.
type RankedRecipe struct {
	Name  string
	Score float64
}

// ImportItem is the outcome of importing one catalog recipe.
type ImportItem struct {
	Recipe string
	Err    error
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Items     []ImportItem
	Succeeded int
	Failed    int
}

func mealFromDomain(r recommendation.Recommendation) Meal {
	m := Meal{
		HealthScore:      r.Score.Health,
		GlucoseScore:     r.Score.Glucose,
		NutrientScore:    r.Score.Nutrient,
		PredictedGlucose: r.Score.Predicted,
		Energy:           r.Energy(),
		Carb:             r.Nutrition.Carb,
		Protein:          r.Nutrition.Protein,
		Fat:              r.Nutrition.Fat,
		Fiber:            r.Nutrition.Fiber,
		Attempts:         r.Attempts,
		Accepted:         r.ThresholdMet(),
	}
	for i, name := range r.Recipes {
		if name == "" {
			continue
		}
		m.Dishes = append(m.Dishes, Dish{Recipe: name, Ratio: r.Ratios[i]})
	}
	return m
}

func ratingFromDomain(r preference.Result) Rating {
	return Rating{Recipe: r.Recipe, Score: r.Score, Ingredients: r.Ingredients}
}

func rankedFromDomain(entries []ranking.Entry) []RankedRecipe {
	out := make([]RankedRecipe, len(entries))
	for i, e := range entries {
		out[i] = RankedRecipe{Name: e.Name, Score: e.Score}
	}
	return out
}

func importFromDomain(results []dombatch.Result) ImportResult {
	res := ImportResult{Items: make([]ImportItem, len(results))}
	for i, r := range results {
		res.Items[i] = ImportItem{Recipe: r.Name(), Err: r.Err()}
		if r.Status() == dombatch.StatusOK {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	return res
}
