package selection

import (
	"sort"

	"captionSelector/domain"
)

const (
	StrategyExplore = "explore"
	StrategyExploit = "exploit"
)

// Allocate ranks the tier's included outcomes by sort key descending, ties
// broken by caption id, and takes the first k. A short tier returns what it
// has and is marked under-supplied.
func Allocate(tier domain.PriceTier, outcomes []Outcome, k int, exploreWidth float64) domain.TierSelection {
	ranked := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Verdict == Included {
			ranked = append(ranked, o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SortKey != ranked[j].SortKey {
			return ranked[i].SortKey > ranked[j].SortKey
		}
		return ranked[i].Caption.CaptionID < ranked[j].Caption.CaptionID
	})

	if k < 0 {
		k = 0
	}
	sel := domain.TierSelection{
		Tier:      tier,
		Requested: k,
		Available: len(ranked),
		Status:    domain.FulfillmentFull,
		Captions:  []domain.SelectedCaption{},
	}
	take := k
	if len(ranked) < k {
		take = len(ranked)
		sel.Status = domain.FulfillmentUnderSupplied
	}

	for _, o := range ranked[:take] {
		sel.Captions = append(sel.Captions, domain.SelectedCaption{
			CaptionID:  o.Caption.CaptionID,
			Category:   o.Caption.ContentCategory,
			HasUrgency: o.Caption.HasUrgency,
			FinalScore: o.Score,
			Breakdown:  o.Breakdown,
			Strategy:   strategyFor(o.Bounds, exploreWidth),
			Confidence: 1 - o.Bounds.Width,
		})
	}
	return sel
}

func strategyFor(b ConfidenceBounds, exploreWidth float64) string {
	if b.Width >= exploreWidth {
		return StrategyExplore
	}
	return StrategyExploit
}
