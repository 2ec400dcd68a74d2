package selection

import (
	"context"
	"time"

	"captionSelector/domain"
)

// budget penalties, most severe last
const (
	penaltyNone    = 0.0
	penaltySoftCap = -0.15
	penaltyNearCap = -0.5
	penaltyHardCap = -1.0
	softCapPercent = 60
	nearCapPercent = 80
	hardCapPercent = 100
)

// UsageCounts is a creator's assignment usage inside the rolling window.
type UsageCounts struct {
	ByCategory map[string]int
	Urgent     int
}

// UsageCounter counts recent usage for budget penalties. Record is called
// after a batch has been committed to the ledger.
// UsageCounter counts a creator's active assignments created since a time.
// Rows deactivated by the cooldown sweep stop counting: ledger-backed
// counters filter on active, and counters that keep their own copy must be
// told through Forget when the sweep runs.
type UsageCounter interface {
	CountSince(ctx context.Context, creatorID string, since time.Time) (UsageCounts, error)
	Record(ctx context.Context, rows []domain.Assignment) error
}

// BudgetPenalty grades usage against max: above 60% costs 0.15, above 80%
// costs 0.5 and reaching max costs 1.0. A non-positive max disables the cap.
func BudgetPenalty(usage, max int) float64 {
	if max <= 0 {
		return penaltyNone
	}
	switch {
	case usage*100 >= max*hardCapPercent:
		return penaltyHardCap
	case usage*100 > max*nearCapPercent:
		return penaltyNearCap
	case usage*100 > max*softCapPercent:
		return penaltySoftCap
	default:
		return penaltyNone
	}
}

// CandidatePenalty is the most severe of the category penalty and, for
// urgent captions, the urgency penalty.
func CandidatePenalty(c domain.Caption, usage UsageCounts, cfg Config) float64 {
	p := BudgetPenalty(usage.ByCategory[c.ContentCategory], cfg.MaxPerCategory)
	if c.HasUrgency {
		if up := BudgetPenalty(usage.Urgent, cfg.MaxUrgentPerWeek); up < p {
			p = up
		}
	}
	return p
}
