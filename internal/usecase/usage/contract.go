package usage

// BudgetReader is the read side of the LLM token budget tracker.
// Remaining values are -1 when the corresponding limit is unlimited.
type BudgetReader interface {
	DailyLimit() int64
	DailyUsed() int64
	RemainingDaily() int64

	MonthlyLimit() int64
	MonthlyUsed() int64
	RemainingMonthly() int64
}
