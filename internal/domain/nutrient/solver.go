package nutrient

// Role weights: how much of the carb and protein demand each recipe is expected to carry.
const (
	stapleCarbShare    = 0.6
	vegetableCarbShare = 0.5
	vegetableProtShare = 0.5
	proteinRecipeShare = 0.8
	unscaledServing    = 1.0
)

// Ratios are the serving multipliers for a combination in role order
// (staple, vegetable, protein recipe).
type Ratios [3]float64

// Solve derives serving ratios from the three raw profiles and the meal target.
// Carb and protein demands are split across contributing recipes by fixed shares;
// fat only ever caps the vegetable and protein ratios. Never fails: every division
// is guarded, and zero denominators fall back to an unscaled serving.
func Solve(staple, vegetable, protein Profile, needs Needs) Ratios {
	var r Ratios

	totalCarb := staple.Carb + vegetable.Carb + protein.Carb
	if totalCarb > 0 {
		carbRatio := needs.Carb / totalCarb
		r[0] = carbRatio * stapleCarbShare
		r[1] = carbRatio * vegetableCarbShare
	} else {
		r[0] = unscaledServing
		r[1] = unscaledServing
	}

	totalProtein := vegetable.Protein + protein.Protein
	if totalProtein > 0 {
		proteinRatio := needs.Protein / totalProtein
		r[1] += proteinRatio * vegetableProtShare
		r[2] += proteinRatio * proteinRecipeShare
	}

	totalFat := vegetable.Fat + protein.Fat
	if totalFat > 0 {
		fatRatio := needs.Fat / totalFat
		r[1] = min(r[1], fatRatio)
		r[2] = min(r[2], fatRatio)
	} else {
		r[2] = unscaledServing
	}

	for i := range r {
		if r[i] < 0 {
			r[i] = 0
		}
	}
	return r
}

// Combine sums the raw profiles scaled by their ratios.
func Combine(profiles [3]Profile, ratios Ratios) Profile {
	var total Profile
	for i, p := range profiles {
		total = total.Add(p.Scale(ratios[i]))
	}
	return total
}
