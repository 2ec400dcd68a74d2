package selection

import (
	"sort"

	"captionSelector/domain"
)

// tier shares in percent: budget, mid, premium
var segmentShares = map[domain.Segment][3]int{
	domain.SegmentBudgetConscious:  {60, 30, 10},
	domain.SegmentBalanced:         {30, 45, 25},
	domain.SegmentPriceInsensitive: {15, 35, 50},
}

// PlanTierCounts splits ppvTotal across the paid tiers by segment. Shares
// are floored and the remainder goes to mid.
func PlanTierCounts(seg domain.Segment, ppvTotal, bumpTotal int) domain.TierCounts {
	if ppvTotal < 0 {
		ppvTotal = 0
	}
	if bumpTotal < 0 {
		bumpTotal = 0
	}
	shares, ok := segmentShares[seg]
	if !ok {
		shares = segmentShares[domain.SegmentBalanced]
	}

	budget := ppvTotal * shares[0] / 100
	premium := ppvTotal * shares[2] / 100
	return domain.TierCounts{
		Budget:  budget,
		Mid:     ppvTotal - budget - premium,
		Premium: premium,
		Bump:    bumpTotal,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
