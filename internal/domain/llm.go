package domain

import "context"

// ChatCompleter is the shared chat completion contract between layers.
type ChatCompleter interface {
	Complete(ctx context.Context, system, prompt string) (Completion, error)
}

// HealthChecker verifies availability of an external provider.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Completion carries the generated text and token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
