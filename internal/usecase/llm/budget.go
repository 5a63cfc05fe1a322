// Package llm wraps chat completion providers with token budgeting and observability.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists shared period counters. IncrBy returns the counter
// after the increment, which includes usage recorded by other instances.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
}

const persistTimeout = 2 * time.Second

// window is one token counter bound to a calendar period.
type window struct {
	name   string
	layout string
	limit  int64
	used   int64
	start  time.Time
	floor  func(time.Time) time.Time
}

// roll zeroes the counter once now falls into a later period.
func (w *window) roll(now time.Time) {
	if p := w.floor(now); p.After(w.start) {
		w.start = p
		w.used = 0
	}
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

// remaining is -1 when the window has no limit.
func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker keeps daily and monthly token windows in memory and mirrors
// them to an optional shared store. Check never leaves the process.
type BudgetTracker struct {
	mu      sync.Mutex
	scope   string
	action  BudgetAction
	daily   window
	monthly window
	store   BudgetStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewBudgetTracker creates a budget tracker. A zero limit means unlimited.
func NewBudgetTracker(
	scope string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		scope:   scope,
		action:  action,
		daily:   window{name: "daily", layout: "2006-01-02", limit: dailyLimit, floor: truncateToDay},
		monthly: window{name: "monthly", layout: "2006-01", limit: monthlyLimit, floor: truncateToMonth},
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	b.setClock(b.now)
	return b
}

// setClock replaces the time source and re-anchors both windows on it.
func (b *BudgetTracker) setClock(now func() time.Time) {
	b.now = now
	t := now()
	b.daily.start = b.daily.floor(t)
	b.monthly.start = b.monthly.floor(t)
}

// WithStore attaches a shared store and seeds the windows from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	for _, w := range b.windows() {
		key := b.key(w, w.start)
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("llm budget load failed", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = val
	}
	b.logger.Info("llm budget loaded",
		zap.String("scope", b.scope),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *BudgetTracker) windows() []*window { return []*window{&b.daily, &b.monthly} }

// key renders glycomeal:budget:{scope}:{daily|monthly}:{period}.
func (b *BudgetTracker) key(w *window, t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, b.scope, w.name, t.Format(w.layout))
}

func (b *BudgetTracker) dailyKey(t time.Time) string   { return b.key(&b.daily, t) }
func (b *BudgetTracker) monthlyKey(t time.Time) string { return b.key(&b.monthly, t) }

func (b *BudgetTracker) rollAll() {
	now := b.now()
	b.daily.roll(now)
	b.monthly.roll(now)
}

// Check reports ErrLLMQuotaExceeded when a limit is hit and the action is reject.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollAll()
	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrLLMQuotaExceeded
	}

	b.logger.Warn("llm token budget exceeded",
		zap.String("scope", b.scope),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record adds consumed tokens locally, then writes them through to the store.
// A shared counter ahead of the local one replaces it.
func (b *BudgetTracker) Record(tokens int64) {
	type pending struct {
		w     *window
		key   string
		start time.Time
	}

	b.mu.Lock()
	b.rollAll()
	var writes []pending
	for _, w := range b.windows() {
		w.used += tokens
		writes = append(writes, pending{w: w, key: b.key(w, w.start), start: w.start})
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// The caller's context may already be done; the counters still have to land.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for _, p := range writes {
		shared, err := store.IncrBy(ctx, p.key, tokens)
		if err != nil {
			b.logger.Warn("llm budget persist failed", zap.String("key", p.key), zap.Error(err))
			continue
		}
		b.mu.Lock()
		if p.w.start.Equal(p.start) && shared > p.w.used {
			p.w.used = shared
		}
		b.mu.Unlock()
	}
}

// RemainingDaily returns tokens left today (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollAll()
	return b.daily.remaining()
}

// RemainingMonthly returns tokens left this month (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollAll()
	return b.monthly.remaining()
}

// DailyLimit returns the daily token cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.daily.limit }

// MonthlyLimit returns the monthly token cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.monthly.limit }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollAll()
	return b.daily.used
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollAll()
	return b.monthly.used
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
