package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedCompleter wraps a ChatCompleter with budget enforcement and logging.
// Request and token metrics are recorded in transport/openai.
type InstrumentedCompleter struct {
	inner  domain.ChatCompleter
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget may be nil.
func NewInstrumentedCompleter(
	inner domain.ChatCompleter, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner, model: model, budget: budget, logger: logger}
}

// Complete checks the budget, delegates, then records token usage on the
// budget and on the request's usage collector.
func (c *InstrumentedCompleter) Complete(ctx context.Context, system, prompt string) (domain.Completion, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Error("llm budget exceeded", zap.String("model", c.model), zap.Error(err))
			return domain.Completion{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := c.inner.Complete(ctx, system, prompt)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("chat completion failed",
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	domain.LLMUsageFromContext(ctx).AddTokens(res.TotalTokens)
	if c.budget != nil && res.TotalTokens > 0 {
		c.budget.Record(int64(res.TotalTokens))
		metrics.LLMBudgetTokensRemaining.WithLabelValues("daily").Set(float64(c.budget.RemainingDaily()))
		metrics.LLMBudgetTokensRemaining.WithLabelValues("monthly").Set(float64(c.budget.RemainingMonthly()))
	}

	c.logger.Debug("chat completion done",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("completion_tokens", res.CompletionTokens),
	)
	return res, nil
}
