package domain

import "time"

// SelectionConfig is a per-creator override row. Zero values fall back to
// the engine defaults.
type SelectionConfig struct {
	CreatorID string `json:"creator_id" gorm:"column:creator_id;primaryKey"`

	CooldownDays     int `json:"cooldown_days" gorm:"column:cooldown_days"`
	MaxPerCategory   int `json:"max_per_category" gorm:"column:max_per_category"`
	MaxUrgentPerWeek int `json:"max_urgent_per_week" gorm:"column:max_urgent_per_week"`

	// guardrails
	MinPoolBudget  int `json:"min_pool_budget" gorm:"column:min_pool_budget"`
	MinPoolMid     int `json:"min_pool_mid" gorm:"column:min_pool_mid"`
	MinPoolPremium int `json:"min_pool_premium" gorm:"column:min_pool_premium"`
	MinPoolBump    int `json:"min_pool_bump" gorm:"column:min_pool_bump"`

	MinPerformanceScore float64 `json:"min_performance_score" gorm:"column:min_performance_score"`
	ExploreWidth        float64 `json:"explore_width" gorm:"column:explore_width"`

	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (SelectionConfig) TableName() string {
	return "selection_configs"
}
