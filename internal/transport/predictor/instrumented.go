package predictor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain/health"
	"github.com/kailas-cloud/glycomeal/internal/metrics"
)

// Model is what every predictor adapter implements.
type Model interface {
	Predict(ctx context.Context, carb, fat, fiber, preMealGlucose float64) (health.Prediction, error)
	HealthCheck(ctx context.Context) error
}

// Instrumented records latency and failures of a predictor.
type Instrumented struct {
	inner  Model
	name   string
	logger *zap.Logger
}

// NewInstrumented wraps a predictor under a metric label such as "http" or "linear".
func NewInstrumented(inner Model, name string, logger *zap.Logger) *Instrumented {
	return &Instrumented{inner: inner, name: name, logger: logger}
}

// Predict delegates and records metrics.
func (p *Instrumented) Predict(ctx context.Context, carb, fat, fiber, preMealGlucose float64) (health.Prediction, error) {
	start := time.Now()
	pred, err := p.inner.Predict(ctx, carb, fat, fiber, preMealGlucose)
	metrics.PredictorRequestDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictorErrorsTotal.WithLabelValues(p.name).Inc()
		p.logger.Warn("glucose prediction failed", zap.String("predictor", p.name), zap.Error(err))
		return health.Prediction{}, err
	}
	return pred, nil
}

// HealthCheck delegates.
func (p *Instrumented) HealthCheck(ctx context.Context) error {
	return p.inner.HealthCheck(ctx)
}
