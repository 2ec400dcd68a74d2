package domain

import (
	"strings"
	"time"
)

// CREATE TABLE public.captions (
//     caption_id        TEXT PRIMARY KEY,
//     caption_text      TEXT NOT NULL,
//     platform          TEXT NOT NULL,
//     price_tier        TEXT NOT NULL,
//     content_category  TEXT NOT NULL,
//     has_urgency       BOOLEAN DEFAULT FALSE,
//     performance_score NUMERIC DEFAULT 0,
//     created_at        TIMESTAMPTZ DEFAULT NOW()
// );

type PriceTier string

const (
	TierBudget  PriceTier = "budget"
	TierMid     PriceTier = "mid"
	TierPremium PriceTier = "premium"
	TierBump    PriceTier = "bump"
)

// AllTiers is the fixed order used everywhere a result is laid out per tier.
var AllTiers = []PriceTier{TierBudget, TierMid, TierPremium, TierBump}

func ParsePriceTier(raw string) (PriceTier, bool) {
	switch PriceTier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierBudget:
		return TierBudget, true
	case TierMid:
		return TierMid, true
	case TierPremium:
		return TierPremium, true
	case TierBump:
		return TierBump, true
	default:
		return "", false
	}
}

// IsPPV reports whether the tier is a paid (non-bump) tier.
func (t PriceTier) IsPPV() bool {
	return t != TierBump
}

type Caption struct {
	CaptionID        string    `gorm:"primaryKey;column:caption_id" json:"caption_id"`
	Text             string    `gorm:"column:caption_text;type:text;not null" json:"text"`
	Platform         string    `gorm:"column:platform;not null" json:"platform"`
	PriceTier        PriceTier `gorm:"column:price_tier;not null" json:"price_tier"`
	ContentCategory  string    `gorm:"column:content_category;not null" json:"content_category"`
	HasUrgency       bool      `gorm:"column:has_urgency;default:false" json:"has_urgency"`
	PerformanceScore float64   `gorm:"column:performance_score;type:numeric" json:"performance_score"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"-"`
}

func (Caption) TableName() string {
	return "captions"
}

// CREATE TABLE public.caption_bandit_stats (
//     caption_id  TEXT NOT NULL,
//     creator_id  TEXT NOT NULL,
//     successes   INT NOT NULL DEFAULT 0,
//     failures    INT NOT NULL DEFAULT 0,
//     avg_emv     NUMERIC NOT NULL DEFAULT 0,
//     PRIMARY KEY (caption_id, creator_id)
// );

type BanditStats struct {
	CaptionID string  `gorm:"primaryKey;column:caption_id" json:"caption_id"`
	CreatorID string  `gorm:"primaryKey;column:creator_id" json:"creator_id"`
	Successes int     `gorm:"column:successes;not null" json:"successes"`
	Failures  int     `gorm:"column:failures;not null" json:"failures"`
	AvgEMV    float64 `gorm:"column:avg_emv;type:numeric" json:"avg_emv"`
}

func (BanditStats) TableName() string {
	return "caption_bandit_stats"
}
