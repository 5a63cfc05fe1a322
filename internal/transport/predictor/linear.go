package predictor

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/health"
)

// Coefficients is one checkpoint's linear model.
type Coefficients struct {
	Intercept      float64 `yaml:"intercept"`
	Carb           float64 `yaml:"carb"`
	Fat            float64 `yaml:"fat"`
	Fiber          float64 `yaml:"fiber"`
	PreMealGlucose float64 `yaml:"pre_meal_glucose"`
}

func (c Coefficients) eval(carb, fat, fiber, pre float64) float64 {
	return c.Intercept + c.Carb*carb + c.Fat*fat + c.Fiber*fiber + c.PreMealGlucose*pre
}

// LinearModel holds coefficients for the 60, 120 and 180 minute checkpoints.
type LinearModel struct {
	Min60  Coefficients `yaml:"min60"`
	Min120 Coefficients `yaml:"min120"`
	Min180 Coefficients `yaml:"min180"`
}

// DefaultLinearModel is a coarse fit used when no sidecar or coefficient file is configured.
func DefaultLinearModel() LinearModel {
	return LinearModel{
		Min60:  Coefficients{Intercept: 0.9, Carb: 0.065, Fat: -0.02, Fiber: -0.08, PreMealGlucose: 0.95},
		Min120: Coefficients{Intercept: 0.6, Carb: 0.045, Fat: -0.01, Fiber: -0.06, PreMealGlucose: 0.9},
		Min180: Coefficients{Intercept: 0.5, Carb: 0.02, Fat: 0.005, Fiber: -0.03, PreMealGlucose: 0.88},
	}
}

// Linear evaluates a LinearModel in process. It never fails on finite input.
type Linear struct {
	model LinearModel
}

// NewLinear creates a local predictor.
func NewLinear(m LinearModel) *Linear {
	return &Linear{model: m}
}

// LoadLinear reads a LinearModel from a YAML file.
func LoadLinear(path string) (*Linear, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coefficients %s: %w", path, err)
	}
	defer f.Close()
	return ParseLinear(f)
}

// ParseLinear decodes a LinearModel; unknown keys are rejected.
func ParseLinear(r io.Reader) (*Linear, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var m LinearModel
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse coefficients: %w", err)
	}
	return NewLinear(m), nil
}

// Predict evaluates the three checkpoint models. Negative outputs clamp to 0.
func (l *Linear) Predict(_ context.Context, carb, fat, fiber, preMealGlucose float64) (health.Prediction, error) {
	var p health.Prediction
	for i, c := range [3]Coefficients{l.model.Min60, l.model.Min120, l.model.Min180} {
		p[i] = math.Max(0, c.eval(carb, fat, fiber, preMealGlucose))
	}
	if !p.IsValid() {
		return health.Prediction{}, fmt.Errorf("linear model produced %v: %w", p, domain.ErrPredictorFailure)
	}
	return p, nil
}

// HealthCheck always succeeds.
func (l *Linear) HealthCheck(context.Context) error { return nil }
