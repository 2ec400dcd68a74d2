package selection

import (
	"context"
	"fmt"
	"strings"

	"captionSelector/domain"
	"captionSelector/pkg/logger"
)

// AdminService manages restriction versions and per-creator overrides.
// Selections already in flight keep the snapshot they read.
type AdminService struct {
	creators     CreatorRepository
	restrictions RestrictionRepository
	cfgRepo      ConfigRepository
}

func NewAdminService(creators CreatorRepository, restrictions RestrictionRepository, cfgRepo ConfigRepository) *AdminService {
	return &AdminService{creators: creators, restrictions: restrictions, cfgRepo: cfgRepo}
}

func (a *AdminService) GetRestriction(ctx context.Context, creatorID string) (domain.CreatorRestriction, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("context error: %w", err)
	}
	r, ok, err := a.restrictions.GetActive(ctx, creatorID)
	if err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("get restriction: %w", err)
	}
	if !ok {
		return domain.CreatorRestriction{}, fmt.Errorf("restriction for creator %q: %w", creatorID, domain.ErrNotFound)
	}
	return r, nil
}

// PublishRestriction stores r as the creator's new active version. Every
// pattern must compile; a record the engine would reject is never stored.
func (a *AdminService) PublishRestriction(ctx context.Context, r domain.CreatorRestriction) (domain.CreatorRestriction, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("context error: %w", err)
	}
	if err := a.requireCreator(ctx, r.CreatorID); err != nil {
		return domain.CreatorRestriction{}, err
	}

	if r.Scope == "" {
		r.Scope = domain.ScopeAll
	}
	switch r.Scope {
	case domain.ScopeAll, domain.ScopePPVOnly, domain.ScopeBumpOnly:
	default:
		return domain.CreatorRestriction{}, domain.NewValidationError("restriction", r.CreatorID, "unknown scope %q", r.Scope)
	}
	for _, p := range append(append([]string{}, r.HardPatterns...), r.SoftPatterns...) {
		if _, err := compilePattern(p); err != nil {
			return domain.CreatorRestriction{}, domain.NewValidationError("restriction", r.CreatorID, "pattern %q: %v", p, err)
		}
	}
	for _, t := range r.RestrictedPriceTiers {
		if _, ok := domain.ParsePriceTier(t); !ok {
			return domain.CreatorRestriction{}, domain.NewValidationError("restriction", r.CreatorID, "unknown price tier %q", t)
		}
	}
	for tier, n := range r.MinPoolPerTier.Data() {
		if _, ok := domain.ParsePriceTier(string(tier)); !ok || n < 0 {
			return domain.CreatorRestriction{}, domain.NewValidationError("restriction", r.CreatorID, "invalid min pool %q=%d", tier, n)
		}
	}
	for i, c := range r.RestrictedCategories {
		r.RestrictedCategories[i] = strings.TrimSpace(c)
	}

	r.IsActive = true
	saved, err := a.restrictions.Publish(ctx, r)
	if err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("publish restriction: %w", err)
	}

	logger.Info("restriction_published", "creator_id", saved.CreatorID, "version", saved.Version, "scope", saved.Scope)
	return saved, nil
}

func (a *AdminService) GetConfig(ctx context.Context, creatorID string) (domain.SelectionConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.SelectionConfig{}, fmt.Errorf("context error: %w", err)
	}
	cfg, ok, err := a.cfgRepo.GetConfig(ctx, creatorID)
	if err != nil {
		return domain.SelectionConfig{}, fmt.Errorf("get selection config: %w", err)
	}
	if !ok {
		return domain.SelectionConfig{}, fmt.Errorf("selection config for creator %q: %w", creatorID, domain.ErrNotFound)
	}
	return cfg, nil
}

func (a *AdminService) UpsertConfig(ctx context.Context, cfg domain.SelectionConfig) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := a.requireCreator(ctx, cfg.CreatorID); err != nil {
		return err
	}
	if cfg.CooldownDays < 0 || cfg.MaxPerCategory < 0 || cfg.MaxUrgentPerWeek < 0 ||
		cfg.MinPoolBudget < 0 || cfg.MinPoolMid < 0 || cfg.MinPoolPremium < 0 || cfg.MinPoolBump < 0 {
		return domain.NewValidationError("selection_config", cfg.CreatorID, "limits must not be negative")
	}
	if cfg.ExploreWidth < 0 || cfg.ExploreWidth > 1 {
		return domain.NewValidationError("selection_config", cfg.CreatorID, "explore_width must be within [0, 1]")
	}
	if err := a.cfgRepo.UpsertConfig(ctx, cfg); err != nil {
		return fmt.Errorf("upsert selection config: %w", err)
	}
	return nil
}

func (a *AdminService) requireCreator(ctx context.Context, creatorID string) error {
	if creatorID == "" {
		return domain.NewValidationError("request", creatorID, "creator_id is required")
	}
	_, ok, err := a.creators.GetCreator(ctx, creatorID)
	if err != nil {
		return domain.NewUpstreamDataError("creator", creatorID, err)
	}
	if !ok {
		return domain.NewValidationError("request", creatorID, "unknown creator")
	}
	return nil
}
