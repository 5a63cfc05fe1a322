package recipe

import (
	"fmt"
	"strconv"
	"strings"

	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

const (
	fieldName     = "name"
	fieldCategory = "category"
	fieldScore    = "preference_score"
	fieldCarb     = "carb"
	fieldProtein  = "protein"
	fieldFat      = "fat"
	fieldFiber    = "fiber"
	fieldTypes    = "types"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func recipeToHash(r domrecipe.Recipe) map[string]string {
	return map[string]string{
		fieldName:     r.Name(),
		fieldCategory: string(r.Category()),
		fieldScore:    formatFloat(r.PreferenceScore()),
	}
}

func recipeFromHash(m map[string]string) (domrecipe.Recipe, error) {
	score, err := parseOptional(m, fieldScore)
	if err != nil {
		return domrecipe.Recipe{}, err
	}
	return domrecipe.Reconstruct(m[fieldName], domrecipe.Category(m[fieldCategory]), score), nil
}

func ingredientToHash(i domrecipe.Ingredient) map[string]string {
	types := make([]string, len(i.Types))
	for j, t := range i.Types {
		types[j] = string(t)
	}
	return map[string]string{
		fieldName:    i.Name,
		fieldCarb:    formatFloat(i.Carb),
		fieldProtein: formatFloat(i.Protein),
		fieldFat:     formatFloat(i.Fat),
		fieldFiber:   formatFloat(i.Fiber),
		fieldScore:   formatFloat(i.PreferenceScore),
		fieldTypes:   strings.Join(types, ","),
	}
}

func ingredientFromHash(name string, m map[string]string, weight float64) (domrecipe.Ingredient, error) {
	ing := domrecipe.Ingredient{Name: name, Weight: weight}
	targets := []struct {
		field string
		dst   *float64
	}{
		{fieldCarb, &ing.Carb},
		{fieldProtein, &ing.Protein},
		{fieldFat, &ing.Fat},
		{fieldFiber, &ing.Fiber},
		{fieldScore, &ing.PreferenceScore},
	}
	for _, t := range targets {
		v, err := parseOptional(m, t.field)
		if err != nil {
			return domrecipe.Ingredient{}, err
		}
		*t.dst = v
	}
	if raw := m[fieldTypes]; raw != "" {
		for _, t := range strings.Split(raw, ",") {
			ing.Types = append(ing.Types, domrecipe.IngredientType(t))
		}
	}
	return ing, nil
}

// parseOptional reads a float field; a missing field reads as zero.
func parseOptional(m map[string]string, field string) (float64, error) {
	raw, ok := m[field]
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return v, nil
}
