package selection

import (
	"context"
	"time"

	"captionSelector/domain"
	"captionSelector/pkg/config"
)

// score weights
const (
	weightThompson  = 0.70
	weightDiversity = 0.15
	weightEMV       = 0.15
	weightPenalty   = 0.10

	// emv is reported in cents-like units; 100 maps to a full component
	emvScale = 100.0

	// rank demotion applied to soft-restricted candidates
	softDemotion = 1000.0
)

type Config struct {
	CooldownDays     int
	UsageWindowDays  int
	MaxPerCategory   int
	MaxUrgentPerWeek int

	// minimum pool size per tier after filtering; 0 disables the guardrail
	MinPoolBudget  int
	MinPoolMid     int
	MinPoolPremium int
	MinPoolBump    int

	MinPerformanceScore float64

	// confidence width at or above which a pick is tagged "explore"
	ExploreWidth float64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const (
	defaultCooldownDays     = 7
	defaultUsageWindowDays  = 7
	defaultMaxPerCategory   = 20
	defaultMaxUrgentPerWeek = 5
	defaultMinPoolBudget    = 200
	defaultMinPoolBump      = 50
	defaultExploreWidth     = 0.3
	defaultReadTimeout      = 5 * time.Second
	defaultWriteTimeout     = 5 * time.Second
)

func DefaultConfig() Config {
	return Config{
		CooldownDays:     defaultCooldownDays,
		UsageWindowDays:  defaultUsageWindowDays,
		MaxPerCategory:   defaultMaxPerCategory,
		MaxUrgentPerWeek: defaultMaxUrgentPerWeek,

		MinPoolBudget: defaultMinPoolBudget,
		MinPoolBump:   defaultMinPoolBump,

		ExploreWidth: defaultExploreWidth,

		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
}

// ConfigFromSettings layers the process settings over DefaultConfig.
// Non-positive settings keep the default.
func ConfigFromSettings(s config.SelectionConfig) Config {
	c := DefaultConfig()
	if s.CooldownDays > 0 {
		c.CooldownDays = s.CooldownDays
	}
	if s.MaxPerCategory > 0 {
		c.MaxPerCategory = s.MaxPerCategory
	}
	if s.MaxUrgentPerWeek > 0 {
		c.MaxUrgentPerWeek = s.MaxUrgentPerWeek
	}
	if s.MinPoolBudget >= 0 {
		c.MinPoolBudget = s.MinPoolBudget
	}
	if s.MinPoolBump >= 0 {
		c.MinPoolBump = s.MinPoolBump
	}
	if s.MinPerformanceScore > 0 {
		c.MinPerformanceScore = s.MinPerformanceScore
	}
	if s.ReadTimeout > 0 {
		c.ReadTimeout = s.ReadTimeout
	}
	if s.WriteTimeout > 0 {
		c.WriteTimeout = s.WriteTimeout
	}
	return c
}

// MinPool returns the configured guardrail for a tier.
func (c Config) MinPool(tier domain.PriceTier) int {
	switch tier {
	case domain.TierBudget:
		return c.MinPoolBudget
	case domain.TierMid:
		return c.MinPoolMid
	case domain.TierPremium:
		return c.MinPoolPremium
	case domain.TierBump:
		return c.MinPoolBump
	default:
		return 0
	}
}

func (c Config) cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}

func (c Config) readTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return defaultReadTimeout
	}
	return c.ReadTimeout
}

func (c Config) writeTimeout() time.Duration {
	if c.WriteTimeout <= 0 {
		return defaultWriteTimeout
	}
	return c.WriteTimeout
}

func (c Config) usageWindow() time.Duration {
	return time.Duration(c.UsageWindowDays) * 24 * time.Hour
}

// ConfigRepository reads per-creator overrides.
type ConfigRepository interface {
	GetConfig(ctx context.Context, creatorID string) (domain.SelectionConfig, bool, error)
	UpsertConfig(ctx context.Context, cfg domain.SelectionConfig) error
}
