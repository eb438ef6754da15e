package notify

import "time"

// BudgetCrossing classifies a budget transition.
type BudgetCrossing int

const (
	BudgetCrossingNone BudgetCrossing = iota
	BudgetCrossingWarning
	BudgetCrossingExceeded
)

const (
	budgetWarningPct  = 80
	budgetExceededPct = 100
)

// BudgetPercent returns spent as a percentage of budget, or 0 when no
// budget is set.
func BudgetPercent(spent, budget int64) float64 {
	if budget <= 0 {
		return 0
	}
	return float64(spent) / float64(budget) * 100
}

// DetectBudgetCrossing decides whether moving from previousSpent to
// currentSpent crossed a threshold. It fires on the transition only: a
// second expense while already above the line reports none.
func DetectBudgetCrossing(previousSpent, currentSpent, totalBudget int64) BudgetCrossing {
	previousPct := BudgetPercent(previousSpent, totalBudget)
	currentPct := BudgetPercent(currentSpent, totalBudget)

	switch {
	case previousPct <= budgetExceededPct && currentPct > budgetExceededPct:
		return BudgetCrossingExceeded
	case previousPct <= budgetWarningPct && currentPct > budgetWarningPct:
		return BudgetCrossingWarning
	default:
		return BudgetCrossingNone
	}
}

// DetectBudgetLevel is the coarser sweep-path variant: it classifies the
// current level against the static thresholds without transition context.
// Callers must pair it with a same-day dedup check or it floods daily.
func DetectBudgetLevel(currentSpent, totalBudget int64) BudgetCrossing {
	pct := BudgetPercent(currentSpent, totalBudget)

	switch {
	case totalBudget <= 0:
		return BudgetCrossingNone
	case pct > budgetExceededPct:
		return BudgetCrossingExceeded
	case pct > budgetWarningPct:
		return BudgetCrossingWarning
	default:
		return BudgetCrossingNone
	}
}

// DaysUntil returns the number of whole days between now and the wedding
// date, comparing midnights in now's location. Today is 0, tomorrow 1,
// yesterday -1.
func DaysUntil(wedding, now time.Time) int {
	loc := now.Location()
	wedding = wedding.In(loc)
	weddingMidnight := time.Date(wedding.Year(), wedding.Month(), wedding.Day(), 0, 0, 0, 0, loc)
	nowMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	return int(weddingMidnight.Sub(nowMidnight) / (24 * time.Hour))
}
