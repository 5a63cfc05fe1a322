package recommend

import (
	"context"

	"github.com/kailas-cloud/glycomeal/internal/domain/health"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
)

// Rankings hands out the top-k candidates of each role, in assembly order.
type Rankings interface {
	Snapshot(k int) [3][]string
}

// Profiler computes a recipe's nutrient profile at a serving ratio.
type Profiler interface {
	Profile(ctx context.Context, recipe string, ratio float64) (nutrient.Profile, error)
}

// Predictor maps meal macros and pre-meal glucose to predicted glucose at 60/120/180 min.
type Predictor interface {
	Predict(ctx context.Context, carb, fat, fiber, preMealGlucose float64) (health.Prediction, error)
}

// Scorer rates a scaled meal against its target.
type Scorer interface {
	Score(p nutrient.Profile, needs nutrient.Needs, predicted health.Prediction) health.Score
}
