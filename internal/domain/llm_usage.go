package domain

import "context"

type llmUsageKey struct{}

// LLMUsage collects chat completion token usage for a single HTTP request.
// The handler puts a mutable pointer into the context, the instructions service
// writes to it, and the handler reads it back for response headers.
type LLMUsage struct {
	TotalTokens int
	Cached      bool
}

// NewContextWithLLMUsage returns a context carrying a usage collector.
func NewContextWithLLMUsage(ctx context.Context) (context.Context, *LLMUsage) {
	u := &LLMUsage{}
	return context.WithValue(ctx, llmUsageKey{}, u), u
}

// LLMUsageFromContext extracts the usage collector. Returns nil if not set.
func LLMUsageFromContext(ctx context.Context) *LLMUsage {
	u, _ := ctx.Value(llmUsageKey{}).(*LLMUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *LLMUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
	}
}

// MarkCached records that the answer came from the cache.
func (u *LLMUsage) MarkCached() {
	if u != nil {
		u.Cached = true
	}
}
