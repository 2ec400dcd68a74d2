package selection

import (
	"context"

	"captionSelector/domain"
)

// loadConfig layers the creator's stored overrides on top of defaultCfg.
// Zero-valued override fields keep the default; a missing row means no
// overrides. A failed read is an UpstreamDataError, never the defaults.
func (s *SelectionService) loadConfig(ctx context.Context, creatorID string) (Config, error) {
	if s.cfgRepo == nil {
		return s.defaultCfg, nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.defaultCfg.readTimeout())
	defer cancel()

	dbCfg, ok, err := s.cfgRepo.GetConfig(rctx, creatorID)
	if err != nil {
		return Config{}, domain.NewUpstreamDataError("config", creatorID, err)
	}
	if !ok {
		return s.defaultCfg, nil
	}

	cfg := s.defaultCfg

	if dbCfg.CooldownDays > 0 {
		cfg.CooldownDays = dbCfg.CooldownDays
	}
	if dbCfg.MaxPerCategory > 0 {
		cfg.MaxPerCategory = dbCfg.MaxPerCategory
	}
	if dbCfg.MaxUrgentPerWeek > 0 {
		cfg.MaxUrgentPerWeek = dbCfg.MaxUrgentPerWeek
	}

	// guardrails
	if dbCfg.MinPoolBudget > 0 {
		cfg.MinPoolBudget = dbCfg.MinPoolBudget
	}
	if dbCfg.MinPoolMid > 0 {
		cfg.MinPoolMid = dbCfg.MinPoolMid
	}
	if dbCfg.MinPoolPremium > 0 {
		cfg.MinPoolPremium = dbCfg.MinPoolPremium
	}
	if dbCfg.MinPoolBump > 0 {
		cfg.MinPoolBump = dbCfg.MinPoolBump
	}

	if dbCfg.MinPerformanceScore > 0 {
		cfg.MinPerformanceScore = dbCfg.MinPerformanceScore
	}
	if dbCfg.ExploreWidth > 0 {
		cfg.ExploreWidth = dbCfg.ExploreWidth
	}

	return cfg, nil
}
