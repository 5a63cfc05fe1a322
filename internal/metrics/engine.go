package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation engine Prometheus metrics.
var (
	SearchAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "glycomeal",
			Name:      "search_attempts",
			Help:      "Combinations evaluated per recommendation search",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	SearchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glycomeal",
			Name:      "search_outcomes_total",
			Help:      "Recommendation searches by outcome",
		},
		[]string{"outcome"}, // "accepted" / "exhausted"
	)

	HealthScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "glycomeal",
			Name:      "health_score",
			Help:      "Composite health score of returned recommendations",
			Buckets:   []float64{0, 0.25, 0.5, 0.7, 1, 2, 5, 10},
		},
	)

	PredictorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glycomeal",
			Name:      "predictor_request_duration_seconds",
			Help:      "Glucose predictor call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"predictor"},
	)

	PredictorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glycomeal",
			Name:      "predictor_errors_total",
			Help:      "Glucose predictor failures",
		},
		[]string{"predictor"},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glycomeal",
			Name:      "feedback_total",
			Help:      "Applied preference ratings and glucose log entries",
		},
		[]string{"kind"}, // "rating" / "glucose"
	)
)

var engineOnce sync.Once

// RegisterEngineMetrics registers the engine metrics. Safe to call more than once.
func RegisterEngineMetrics() {
	engineOnce.Do(func() {
		prometheus.MustRegister(
			SearchAttempts,
			SearchOutcomesTotal,
			HealthScore,
			PredictorRequestDuration,
			PredictorErrorsTotal,
			FeedbackTotal,
		)
	})
}
