package selection

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"captionSelector/domain"
	"captionSelector/pkg/logger"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RestrictionRepository reads and publishes creator restriction records.
type RestrictionRepository interface {
	GetActive(ctx context.Context, creatorID string) (domain.CreatorRestriction, bool, error)
	Publish(ctx context.Context, r domain.CreatorRestriction) (domain.CreatorRestriction, error)
}

type ExclusionReason string

const (
	ReasonBelowFloor         ExclusionReason = "below_performance_floor"
	ReasonHardPattern        ExclusionReason = "hard_pattern"
	ReasonRestrictedCategory ExclusionReason = "restricted_category"
	ReasonRestrictedTier     ExclusionReason = "restricted_tier"
	ReasonCooldown           ExclusionReason = "cooldown"
	ReasonCallerExcluded     ExclusionReason = "caller_excluded"
	ReasonBudgetExhausted    ExclusionReason = "budget_exhausted"
)

// RuleVerdict is the restriction outcome for one caption.
type RuleVerdict struct {
	Excluded    bool
	Reason      ExclusionReason
	SoftDemoted bool
}

// RuleSet is a compiled, read-only restriction record.
type RuleSet struct {
	CreatorID string
	Version   int
	Scope     domain.RestrictionScope

	hard       []*regexp.Regexp
	soft       []*regexp.Regexp
	categories map[string]struct{}
	tiers      map[domain.PriceTier]struct{}
	minPool    map[domain.PriceTier]int
}

// emptyRuleSet applies when a creator has no active restriction.
func emptyRuleSet(creatorID string) *RuleSet {
	return &RuleSet{
		CreatorID:  creatorID,
		Scope:      domain.ScopeAll,
		categories: map[string]struct{}{},
		tiers:      map[domain.PriceTier]struct{}{},
		minPool:    map[domain.PriceTier]int{},
	}
}

// Evaluate checks hard rules first; soft rules only mark a surviving caption.
func (rs *RuleSet) Evaluate(c domain.Caption) RuleVerdict {
	if !rs.Scope.AppliesTo(c.PriceTier) {
		return RuleVerdict{}
	}
	if _, ok := rs.tiers[c.PriceTier]; ok {
		return RuleVerdict{Excluded: true, Reason: ReasonRestrictedTier}
	}
	if _, ok := rs.categories[strings.ToLower(c.ContentCategory)]; ok {
		return RuleVerdict{Excluded: true, Reason: ReasonRestrictedCategory}
	}
	for _, re := range rs.hard {
		if re.MatchString(c.Text) {
			return RuleVerdict{Excluded: true, Reason: ReasonHardPattern}
		}
	}
	for _, re := range rs.soft {
		if re.MatchString(c.Text) {
			return RuleVerdict{SoftDemoted: true}
		}
	}
	return RuleVerdict{}
}

// MinPool returns the restriction's guardrail for a tier, if it sets one.
func (rs *RuleSet) MinPool(tier domain.PriceTier) (int, bool) {
	n, ok := rs.minPool[tier]
	return n, ok
}

// RestrictionFilter compiles restriction records and caches them by
// (creator, version). A record is immutable once published, so a new
// version always misses the cache.
type RestrictionFilter struct {
	cache *lru.Cache[string, *RuleSet]
}

const defaultRuleCacheSize = 1024

func NewRestrictionFilter(size int) (*RestrictionFilter, error) {
	if size <= 0 {
		size = defaultRuleCacheSize
	}
	c, err := lru.New[string, *RuleSet](size)
	if err != nil {
		return nil, fmt.Errorf("create rule cache: %w", err)
	}
	return &RestrictionFilter{cache: c}, nil
}

// Compile turns a restriction into a RuleSet. A nil or inactive record
// yields the permissive default. An unparseable hard pattern fails the
// whole record; an unparseable soft pattern is logged and skipped.
func (f *RestrictionFilter) Compile(creatorID string, r *domain.CreatorRestriction) (*RuleSet, error) {
	if r == nil || !r.IsActive {
		return emptyRuleSet(creatorID), nil
	}

	key := fmt.Sprintf("%s:%d", creatorID, r.Version)
	if f.cache != nil {
		if rs, ok := f.cache.Get(key); ok {
			return rs, nil
		}
	}

	rs := emptyRuleSet(creatorID)
	rs.Version = r.Version
	if r.Scope != "" {
		rs.Scope = r.Scope
	}

	for _, p := range r.HardPatterns {
		re, err := compilePattern(p)
		if err != nil {
			return nil, domain.NewUpstreamDataError("restriction", creatorID,
				fmt.Errorf("hard pattern %q (version %d): %w", p, r.Version, err))
		}
		rs.hard = append(rs.hard, re)
	}
	for _, p := range r.SoftPatterns {
		re, err := compilePattern(p)
		if err != nil {
			logger.Warn("soft_pattern_skipped",
				"creator_id", creatorID,
				"version", r.Version,
				"pattern", p,
				"error", err,
			)
			SoftPatternsSkippedTotal.Inc()
			continue
		}
		rs.soft = append(rs.soft, re)
	}
	for _, c := range r.RestrictedCategories {
		rs.categories[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, t := range r.RestrictedPriceTiers {
		tier, ok := domain.ParsePriceTier(t)
		if !ok {
			return nil, domain.NewUpstreamDataError("restriction", creatorID,
				fmt.Errorf("unknown restricted price tier %q (version %d)", t, r.Version))
		}
		rs.tiers[tier] = struct{}{}
	}
	for tier, n := range r.MinPoolPerTier.Data() {
		if n >= 0 {
			rs.minPool[tier] = n
		}
	}

	if f.cache != nil {
		f.cache.Add(key, rs)
	}
	return rs, nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if strings.TrimSpace(p) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile("(?i)" + p)
}
