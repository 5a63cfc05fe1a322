package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
)

func TestBudgetTracker_Check(t *testing.T) {
	tests := []struct {
		name          string
		daily, month  int64
		action        BudgetAction
		record        int64
		wantExceeded  bool
		wantDailyLeft int64
		wantMonthLeft int64
	}{
		{"under both limits", 1000, 10000, BudgetActionReject, 300, false, 700, 9700},
		{"daily reached rejects", 100, 0, BudgetActionReject, 100, true, 0, -1},
		{"monthly reached rejects", 0, 500, BudgetActionReject, 500, true, -1, 0},
		{"warn never rejects", 100, 0, BudgetActionWarn, 200, false, 0, -1},
		{"zero limits are unlimited", 0, 0, BudgetActionReject, 999999999, false, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt := NewBudgetTracker("test", tt.daily, tt.month, tt.action, zap.NewNop())
			bt.Record(tt.record)

			err := bt.Check(context.Background())
			if got := errors.Is(err, domain.ErrLLMQuotaExceeded); got != tt.wantExceeded {
				t.Fatalf("Check() = %v, want exceeded=%v", err, tt.wantExceeded)
			}
			if got := bt.RemainingDaily(); got != tt.wantDailyLeft {
				t.Errorf("RemainingDaily() = %d, want %d", got, tt.wantDailyLeft)
			}
			if got := bt.RemainingMonthly(); got != tt.wantMonthLeft {
				t.Errorf("RemainingMonthly() = %d, want %d", got, tt.wantMonthLeft)
			}
		})
	}
}

func TestBudgetTracker_DayRolloverKeepsMonth(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 1000, BudgetActionReject, zap.NewNop())
	clock := time.Date(2026, 4, 29, 23, 0, 0, 0, time.UTC)
	bt.setClock(func() time.Time { return clock })

	bt.Record(100)
	if err := bt.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before rollover")
	}

	clock = clock.Add(2 * time.Hour)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected daily reset after midnight, got %v", err)
	}
	if bt.MonthlyUsed() != 100 {
		t.Errorf("monthly used = %d, want 100", bt.MonthlyUsed())
	}
}

func TestBudgetTracker_MonthRolloverResetsBoth(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 1000, BudgetActionReject, zap.NewNop())
	clock := time.Date(2026, 4, 30, 23, 0, 0, 0, time.UTC)
	bt.setClock(func() time.Time { return clock })

	bt.Record(80)
	clock = clock.Add(2 * time.Hour)

	if bt.DailyUsed() != 0 || bt.MonthlyUsed() != 0 {
		t.Errorf("used = %d/%d after month rollover, want 0/0", bt.DailyUsed(), bt.MonthlyUsed())
	}
}

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	incErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return 0, m.incErr
	}
	m.data[key] += val
	return m.data[key], nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func (m *mockBudgetStore) value(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func TestBudgetTracker_WithStore(t *testing.T) {
	at := time.Date(2026, 7, 9, 10, 0, 0, 0, time.UTC)

	t.Run("seeds counters", func(t *testing.T) {
		store := newMockBudgetStore()
		bt := NewBudgetTracker("llm", 1000, 10000, BudgetActionReject, zap.NewNop())
		bt.setClock(func() time.Time { return at })
		store.data[bt.dailyKey(at)] = 300
		store.data[bt.monthlyKey(at)] = 5000

		bt.WithStore(context.Background(), store)

		if bt.DailyUsed() != 300 || bt.MonthlyUsed() != 5000 {
			t.Errorf("used = %d/%d, want 300/5000", bt.DailyUsed(), bt.MonthlyUsed())
		}
	})

	t.Run("load error leaves zero", func(t *testing.T) {
		store := newMockBudgetStore()
		store.getErr = errors.New("connection refused")
		bt := NewBudgetTracker("llm", 1000, 10000, BudgetActionReject, zap.NewNop())

		bt.WithStore(context.Background(), store)

		if bt.DailyUsed() != 0 || bt.MonthlyUsed() != 0 {
			t.Errorf("used = %d/%d, want 0/0", bt.DailyUsed(), bt.MonthlyUsed())
		}
	})
}

func TestBudgetTracker_Record_WritesThrough(t *testing.T) {
	at := time.Date(2026, 7, 9, 10, 0, 0, 0, time.UTC)
	store := newMockBudgetStore()
	bt := NewBudgetTracker("llm", 10000, 100000, BudgetActionWarn, zap.NewNop())
	bt.setClock(func() time.Time { return at })
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)

	if d, m := store.value(bt.dailyKey(at)), store.value(bt.monthlyKey(at)); d != 300 || m != 300 {
		t.Errorf("store = %d/%d, want 300/300", d, m)
	}
}

func TestBudgetTracker_Record_AdoptsSharedCounter(t *testing.T) {
	at := time.Date(2026, 7, 9, 10, 0, 0, 0, time.UTC)
	store := newMockBudgetStore()
	bt := NewBudgetTracker("llm", 1000, 0, BudgetActionReject, zap.NewNop())
	bt.setClock(func() time.Time { return at })
	bt.WithStore(context.Background(), store)

	// Another instance spends 950 after this one has loaded.
	store.data[bt.dailyKey(at)] = 950

	bt.Record(60)

	if bt.DailyUsed() != 1010 {
		t.Errorf("daily used = %d, want 1010", bt.DailyUsed())
	}
	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrLLMQuotaExceeded) {
		t.Errorf("Check() = %v, want ErrLLMQuotaExceeded", err)
	}
}

func TestBudgetTracker_Record_StoreErrorKeepsLocal(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("llm", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)
	store.mu.Lock()
	store.incErr = errors.New("write timeout")
	store.mu.Unlock()

	bt.Record(50)

	if bt.DailyUsed() != 50 {
		t.Errorf("daily used = %d, want 50", bt.DailyUsed())
	}
}

func TestBudgetTracker_KeyFormat(t *testing.T) {
	bt := NewBudgetTracker("llm", 0, 0, BudgetActionWarn, zap.NewNop())
	at := time.Date(2026, 7, 9, 10, 0, 0, 0, time.UTC)

	if got := bt.dailyKey(at); got != "glycomeal:budget:llm:daily:2026-07-09" {
		t.Errorf("daily key = %s", got)
	}
	if got := bt.monthlyKey(at); got != "glycomeal:budget:llm:monthly:2026-07" {
		t.Errorf("monthly key = %s", got)
	}
}
