package domain

import (
	"strings"
	"time"
)

type Segment string

const (
	SegmentBudgetConscious  Segment = "Budget-Conscious"
	SegmentBalanced         Segment = "Balanced"
	SegmentPriceInsensitive Segment = "Price-Insensitive"
)

// ParseSegment accepts the canonical labels plus the legacy analyzer labels
// (BUDGET, EXPLORATORY, STANDARD, PREMIUM, LUXURY), case-insensitively.
func ParseSegment(raw string) (Segment, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUDGET-CONSCIOUS", "BUDGET_CONSCIOUS", "BUDGET", "EXPLORATORY":
		return SegmentBudgetConscious, true
	case "BALANCED", "STANDARD":
		return SegmentBalanced, true
	case "PRICE-INSENSITIVE", "PRICE_INSENSITIVE", "PREMIUM", "LUXURY":
		return SegmentPriceInsensitive, true
	default:
		return "", false
	}
}

type Creator struct {
	CreatorID         string    `gorm:"primaryKey;column:creator_id" json:"creator_id"`
	Platform          string    `gorm:"column:platform;not null" json:"platform"`
	BehavioralSegment string    `gorm:"column:behavioral_segment" json:"behavioral_segment"`
	IsActive          bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Creator) TableName() string {
	return "creators"
}
