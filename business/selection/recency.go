package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"captionSelector/domain"
)

// RecentUsage is an immutable per-request view of a creator's active
// assignments inside the lookback window. Every collection is non-nil, so a
// creator without history reads the same as one with an empty history.
type RecentUsage struct {
	CreatorID  string
	Since      time.Time
	Categories map[string]int
	Tiers      map[domain.PriceTier]struct{}
	Urgency    map[bool]struct{}
	CaptionIDs map[string]struct{}
}

// BuildRecentUsage aggregates assignments into a RecentUsage. Inactive rows
// and rows dated before since are ignored.
func BuildRecentUsage(creatorID string, since time.Time, rows []domain.Assignment) RecentUsage {
	ru := RecentUsage{
		CreatorID:  creatorID,
		Since:      since,
		Categories: map[string]int{},
		Tiers:      map[domain.PriceTier]struct{}{},
		Urgency:    map[bool]struct{}{},
		CaptionIDs: map[string]struct{}{},
	}
	for _, a := range rows {
		if !a.Active || a.CreatorID != creatorID {
			continue
		}
		if domain.TruncateDate(a.TargetDate).Before(since) {
			continue
		}
		ru.Categories[a.Category]++
		ru.Tiers[a.PriceTier] = struct{}{}
		ru.Urgency[a.HasUrgency] = struct{}{}
		ru.CaptionIDs[a.CaptionID] = struct{}{}
	}
	return ru
}

func (r RecentUsage) CategoryCount(category string) int {
	return r.Categories[category]
}

func (r RecentUsage) TierUsed(tier domain.PriceTier) bool {
	_, ok := r.Tiers[tier]
	return ok
}

func (r RecentUsage) UrgencyUsed(flag bool) bool {
	_, ok := r.Urgency[flag]
	return ok
}

func (r RecentUsage) InCooldown(captionID string) bool {
	_, ok := r.CaptionIDs[captionID]
	return ok
}

// RecencyView is the JSON shape of RecentUsage with sorted, non-null lists.
type RecencyView struct {
	CreatorID      string             `json:"creator_id"`
	Since          string             `json:"since"`
	Categories     []string           `json:"categories"`
	CategoryCounts map[string]int     `json:"category_counts"`
	Tiers          []domain.PriceTier `json:"price_tiers"`
	UrgencyFlags   []bool             `json:"urgency_flags"`
	CaptionIDs     []string           `json:"caption_ids"`
}

func (r RecentUsage) View() RecencyView {
	v := RecencyView{
		CreatorID:      r.CreatorID,
		Since:          r.Since.Format(domain.DateLayout),
		Categories:     make([]string, 0, len(r.Categories)),
		CategoryCounts: make(map[string]int, len(r.Categories)),
		Tiers:          make([]domain.PriceTier, 0, len(r.Tiers)),
		UrgencyFlags:   make([]bool, 0, len(r.Urgency)),
		CaptionIDs:     make([]string, 0, len(r.CaptionIDs)),
	}
	for c, n := range r.Categories {
		v.Categories = append(v.Categories, c)
		v.CategoryCounts[c] = n
	}
	sort.Strings(v.Categories)
	for _, t := range domain.AllTiers {
		if r.TierUsed(t) {
			v.Tiers = append(v.Tiers, t)
		}
	}
	for _, f := range []bool{false, true} {
		if r.UrgencyUsed(f) {
			v.UrgencyFlags = append(v.UrgencyFlags, f)
		}
	}
	for id := range r.CaptionIDs {
		v.CaptionIDs = append(v.CaptionIDs, id)
	}
	sort.Strings(v.CaptionIDs)
	return v
}

// RecentUsage reads the creator's lookback window fresh from the ledger.
func (s *SelectionService) RecentUsage(ctx context.Context, creatorID string, at time.Time) (RecentUsage, error) {
	if err := ctx.Err(); err != nil {
		return RecentUsage{}, fmt.Errorf("context error: %w", err)
	}
	cfg, err := s.loadConfig(ctx, creatorID)
	if err != nil {
		return RecentUsage{}, err
	}
	since := lookbackStart(at, cfg)

	rctx, cancel := context.WithTimeout(ctx, cfg.readTimeout())
	defer cancel()

	rows, err := s.ledger.ListActiveSince(rctx, creatorID, since)
	if err != nil {
		return RecentUsage{}, domain.NewUpstreamDataError("recency", creatorID, err)
	}
	return BuildRecentUsage(creatorID, since, rows), nil
}

func lookbackStart(target time.Time, cfg Config) time.Time {
	return domain.TruncateDate(target).Add(-cfg.cooldown())
}
