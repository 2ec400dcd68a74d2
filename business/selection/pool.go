package selection

import (
	"sort"

	"captionSelector/domain"
)

// Candidate is a caption that survived pool filtering, with the inputs the
// scorer needs.
type Candidate struct {
	Caption     domain.Caption
	Stats       domain.BanditStats
	Penalty     float64
	SoftDemoted bool
}

// PoolInput is the immutable snapshot the pool is built from.
type PoolInput struct {
	Catalog   []domain.Caption
	Stats     map[string]domain.BanditStats
	Rules     *RuleSet
	Recent    RecentUsage
	Usage     UsageCounts
	ExcludeID map[string]struct{}
	Requested domain.TierCounts
	Config    Config
}

// Pool holds per-tier candidates ordered by caption id.
type Pool struct {
	ByTier   map[domain.PriceTier][]Candidate
	Excluded map[ExclusionReason]int
	Warnings []domain.PoolExhaustionWarning
}

// BuildPool applies the performance floor, hard restrictions, cooldown and
// caller exclusions, then checks each requested tier against its guardrail.
// A short pool is reported as a warning and never aborts the request.
func BuildPool(in PoolInput) Pool {
	p := Pool{
		ByTier:   make(map[domain.PriceTier][]Candidate, len(domain.AllTiers)),
		Excluded: map[ExclusionReason]int{},
		Warnings: []domain.PoolExhaustionWarning{},
	}
	for _, t := range domain.AllTiers {
		p.ByTier[t] = []Candidate{}
	}

	rules := in.Rules
	if rules == nil {
		rules = emptyRuleSet(in.Recent.CreatorID)
	}

	seen := make(map[string]struct{}, len(in.Catalog))
	for _, c := range in.Catalog {
		if _, ok := p.ByTier[c.PriceTier]; !ok {
			continue
		}
		if _, dup := seen[c.CaptionID]; dup {
			continue
		}
		seen[c.CaptionID] = struct{}{}

		if c.PerformanceScore < in.Config.MinPerformanceScore {
			p.Excluded[ReasonBelowFloor]++
			continue
		}
		if _, ok := in.ExcludeID[c.CaptionID]; ok {
			p.Excluded[ReasonCallerExcluded]++
			continue
		}
		if in.Recent.InCooldown(c.CaptionID) {
			p.Excluded[ReasonCooldown]++
			continue
		}
		v := rules.Evaluate(c)
		if v.Excluded {
			p.Excluded[v.Reason]++
			continue
		}

		st, ok := in.Stats[c.CaptionID]
		if !ok {
			st = domain.BanditStats{CaptionID: c.CaptionID, CreatorID: in.Recent.CreatorID}
		}
		p.ByTier[c.PriceTier] = append(p.ByTier[c.PriceTier], Candidate{
			Caption:     c,
			Stats:       st,
			Penalty:     CandidatePenalty(c, in.Usage, in.Config),
			SoftDemoted: v.SoftDemoted,
		})
	}

	for _, t := range domain.AllTiers {
		cands := p.ByTier[t]
		sort.Slice(cands, func(i, j int) bool {
			return cands[i].Caption.CaptionID < cands[j].Caption.CaptionID
		})

		if in.Requested.For(t) <= 0 {
			continue
		}
		minimum := in.Config.MinPool(t)
		if n, ok := rules.MinPool(t); ok {
			minimum = n
		}
		if len(cands) < minimum {
			p.Warnings = append(p.Warnings, domain.PoolExhaustionWarning{
				Tier:    t,
				Pool:    len(cands),
				Minimum: minimum,
			})
		}
	}

	return p
}
