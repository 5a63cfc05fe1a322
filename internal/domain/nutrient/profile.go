// Package nutrient holds macro-nutrient profiles, per-meal targets and the serving ratio solver.
package nutrient

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/glycomeal/internal/domain"
)

// Energy density in kcal per gram.
const (
	KcalPerGramCarb    = 4
	KcalPerGramProtein = 4
	KcalPerGramFat     = 9
)

// Profile is an absolute macro-nutrient amount in grams.
type Profile struct {
	Carb    float64 `json:"carb"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// Add returns the component-wise sum.
func (p Profile) Add(o Profile) Profile {
	return Profile{
		Carb:    p.Carb + o.Carb,
		Protein: p.Protein + o.Protein,
		Fat:     p.Fat + o.Fat,
		Fiber:   p.Fiber + o.Fiber,
	}
}

// Scale returns the profile multiplied by r.
func (p Profile) Scale(r float64) Profile {
	return Profile{Carb: p.Carb * r, Protein: p.Protein * r, Fat: p.Fat * r, Fiber: p.Fiber * r}
}

// Energy returns the kcal content (fiber excluded).
func (p Profile) Energy() float64 {
	return p.Carb*KcalPerGramCarb + p.Protein*KcalPerGramProtein + p.Fat*KcalPerGramFat
}

// Needs is the macro target for one meal occasion. Fiber is carried but not scored.
type Needs struct {
	Carb    float64  `json:"carb"`
	Protein float64  `json:"protein"`
	Fat     float64  `json:"fat"`
	Fiber   *float64 `json:"fiber,omitempty"`
}

// Validate rejects negative or non-finite targets.
func (n Needs) Validate() error {
	values := []struct {
		name string
		v    float64
	}{{"carb", n.Carb}, {"protein", n.Protein}, {"fat", n.Fat}}
	if n.Fiber != nil {
		values = append(values, struct {
			name string
			v    float64
		}{"fiber", *n.Fiber})
	}
	for _, f := range values {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return domain.NewValidationError("needs."+f.name, "must be a finite number")
		}
		if f.v < 0 {
			return domain.NewValidationError("needs."+f.name, fmt.Sprintf("must be >= 0, got %g", f.v))
		}
	}
	return nil
}
