package domain

import "time"

type TierCounts struct {
	Budget  int `json:"budget" validate:"min=0"`
	Mid     int `json:"mid" validate:"min=0"`
	Premium int `json:"premium" validate:"min=0"`
	Bump    int `json:"bump" validate:"min=0"`
}

func (c TierCounts) For(tier PriceTier) int {
	switch tier {
	case TierBudget:
		return c.Budget
	case TierMid:
		return c.Mid
	case TierPremium:
		return c.Premium
	case TierBump:
		return c.Bump
	default:
		return 0
	}
}

func (c TierCounts) Total() int {
	return c.Budget + c.Mid + c.Premium + c.Bump
}

// SelectionRequest is the engine input. A zero TargetDate means the current UTC day.
type SelectionRequest struct {
	CreatorID         string     `json:"creator_id" validate:"required"`
	BehavioralSegment string     `json:"behavioral_segment" validate:"required"`
	Counts            TierCounts `json:"counts"`
	TargetDate        time.Time  `json:"target_date"`
	ExcludeCaptionIDs []string   `json:"exclude_caption_ids,omitempty"`
}

// ScoreBreakdown holds the weighted inputs of a final score. SoftDemoted
// candidates rank below every non-demoted candidate of the same tier.
type ScoreBreakdown struct {
	Thompson     float64 `json:"thompson"`
	Diversity    float64 `json:"diversity"`
	EMVComponent float64 `json:"emv_component"`
	Penalty      float64 `json:"penalty"`
	Multiplier   float64 `json:"multiplier"`
	SoftDemoted  bool    `json:"soft_demoted"`
}

type SelectedCaption struct {
	CaptionID  string         `json:"caption_id"`
	Category   string         `json:"content_category"`
	HasUrgency bool           `json:"has_urgency"`
	FinalScore float64        `json:"final_score"`
	Breakdown  ScoreBreakdown `json:"score_breakdown"`
	Strategy   string         `json:"strategy"`
	Confidence float64        `json:"confidence"`
}

type FulfillmentStatus string

const (
	FulfillmentFull          FulfillmentStatus = "full"
	FulfillmentUnderSupplied FulfillmentStatus = "under_supplied"
)

type TierSelection struct {
	Tier      PriceTier         `json:"tier"`
	Requested int               `json:"requested"`
	Available int               `json:"available"`
	Status    FulfillmentStatus `json:"status"`
	Captions  []SelectedCaption `json:"captions"`
}

// PoolExhaustionWarning reports a tier whose filtered pool fell below its
// configured guardrail. It is returned, never raised.
type PoolExhaustionWarning struct {
	Tier    PriceTier `json:"tier"`
	Pool    int       `json:"pool"`
	Minimum int       `json:"minimum"`
}

type DiversityReport struct {
	IsDiverse bool     `json:"is_diverse"`
	Issues    []string `json:"issues"`
	Score     float64  `json:"score"`
}

type SelectionResult struct {
	BatchID    string                  `json:"batch_id"`
	CreatorID  string                  `json:"creator_id"`
	Segment    Segment                 `json:"behavioral_segment"`
	TargetDate time.Time               `json:"target_date"`
	Tiers      []TierSelection         `json:"tiers"`
	Warnings   []PoolExhaustionWarning `json:"warnings"`
	Diversity  DiversityReport         `json:"diversity"`
}

// Tier returns the selection for one tier; a zero TierSelection when absent.
func (r SelectionResult) Tier(tier PriceTier) TierSelection {
	for _, t := range r.Tiers {
		if t.Tier == tier {
			return t
		}
	}
	return TierSelection{Tier: tier}
}

func (r SelectionResult) Partial() bool {
	if len(r.Warnings) > 0 {
		return true
	}
	for _, t := range r.Tiers {
		if t.Status == FulfillmentUnderSupplied {
			return true
		}
	}
	return false
}
