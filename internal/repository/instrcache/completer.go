// Package instrcache caches generated cooking instructions by prompt hash.
package instrcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/db"
	"github.com/kailas-cloud/glycomeal/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "instr_cache:"

// DefaultTTL keeps cached instructions for a week.
const DefaultTTL = 7 * 24 * time.Hour

// store is the consumer interface for the instruction cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter serves repeated prompts from the key-value store.
type CachedCompleter struct {
	inner      domain.ChatCompleter
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.ChatCompleter,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCompleter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedCompleter{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Complete returns cached text or calls the inner completer.
// A hit reports zero tokens and marks the request usage as cached.
func (c *CachedCompleter) Complete(ctx context.Context, system, prompt string) (domain.Completion, error) {
	key := cacheKey(system, prompt)

	if text, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		domain.LLMUsageFromContext(ctx).MarkCached()
		return domain.Completion{Text: text}, nil
	}

	c.incCache("miss")

	res, err := c.inner.Complete(ctx, system, prompt)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("complete prompt: %w", err)
	}

	if res.Text != "" {
		if err := c.store.SetWithTTL(ctx, key, []byte(res.Text), c.ttl); err != nil {
			c.logger.Warn("Failed to cache instructions", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

func (c *CachedCompleter) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedCompleter) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached instructions", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func cacheKey(system, prompt string) string {
	h := sha256.New()
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
