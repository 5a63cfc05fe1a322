package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LLM Prometheus metrics for cooking instructions.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glycomeal",
			Name:      "llm_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glycomeal",
			Name:      "llm_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glycomeal",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "completion"
	)

	LLMBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "glycomeal",
			Name:      "llm_budget_tokens_remaining",
			Help:      "Remaining LLM token budget",
		},
		[]string{"period"},
	)

	InstructionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glycomeal",
			Name:      "instruction_cache_total",
			Help:      "Cooking instruction cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var llmOnce sync.Once

// RegisterLLMMetrics registers the LLM metrics. Safe to call more than once.
func RegisterLLMMetrics() {
	llmOnce.Do(func() {
		prometheus.MustRegister(
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMTokensTotal,
			LLMBudgetTokensRemaining,
			InstructionCacheTotal,
		)
	})
}
