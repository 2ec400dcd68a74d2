package domain

import (
	"time"

	"gorm.io/datatypes"
)

type RestrictionScope string

const (
	ScopePPVOnly  RestrictionScope = "PPV_ONLY"
	ScopeBumpOnly RestrictionScope = "BUMP_ONLY"
	ScopeAll      RestrictionScope = "ALL"
)

// AppliesTo reports whether a rule with this scope gates the given tier.
// An empty scope behaves like ALL.
func (s RestrictionScope) AppliesTo(tier PriceTier) bool {
	switch s {
	case ScopePPVOnly:
		return tier.IsPPV()
	case ScopeBumpOnly:
		return tier == TierBump
	default:
		return true
	}
}

// CREATE TABLE public.creator_restrictions (
//     id                     BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     creator_id             TEXT NOT NULL,
//     hard_patterns          JSONB NOT NULL DEFAULT '[]',
//     soft_patterns          JSONB NOT NULL DEFAULT '[]',
//     restricted_categories  JSONB NOT NULL DEFAULT '[]',
//     restricted_price_tiers JSONB NOT NULL DEFAULT '[]',
//     scope                  TEXT NOT NULL DEFAULT 'ALL',
//     min_pool_per_tier      JSONB NOT NULL DEFAULT '{}',
//     is_active              BOOLEAN NOT NULL DEFAULT TRUE,
//     version                INT NOT NULL,
//     created_at             TIMESTAMPTZ DEFAULT NOW()
// );
// CREATE UNIQUE INDEX creator_restrictions_one_active
//     ON creator_restrictions (creator_id) WHERE is_active;

type CreatorRestriction struct {
	ID                   uint64                                `gorm:"primaryKey;autoIncrement" json:"-"`
	CreatorID            string                                `gorm:"column:creator_id;not null" json:"creator_id"`
	HardPatterns         datatypes.JSONSlice[string]           `gorm:"column:hard_patterns;type:jsonb" json:"hard_patterns"`
	SoftPatterns         datatypes.JSONSlice[string]           `gorm:"column:soft_patterns;type:jsonb" json:"soft_patterns"`
	RestrictedCategories datatypes.JSONSlice[string]           `gorm:"column:restricted_categories;type:jsonb" json:"restricted_categories"`
	RestrictedPriceTiers datatypes.JSONSlice[string]           `gorm:"column:restricted_price_tiers;type:jsonb" json:"restricted_price_tiers"`
	Scope                RestrictionScope                      `gorm:"column:scope;not null" json:"scope"`
	MinPoolPerTier       datatypes.JSONType[map[PriceTier]int] `gorm:"column:min_pool_per_tier;type:jsonb" json:"min_pool_per_tier"`
	IsActive             bool                                  `gorm:"column:is_active;not null" json:"is_active"`
	Version              int                                   `gorm:"column:version;not null" json:"version"`
	CreatedAt            time.Time                             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CreatorRestriction) TableName() string {
	return "creator_restrictions"
}
