package selection

import "captionSelector/domain"

// Verdict tags a scored candidate.
type Verdict int

const (
	Included Verdict = iota
	Excluded
)

// Outcome is the scorer's result for one candidate. Excluded outcomes carry
// a Reason and are never ranked.
type Outcome struct {
	Verdict   Verdict
	Reason    ExclusionReason
	Caption   domain.Caption
	Score     float64
	SortKey   float64
	Breakdown domain.ScoreBreakdown
	Bounds    ConfidenceBounds
}

const (
	multiplierPriceInsensitivePremium = 1.25
	multiplierBudgetConsciousLow      = 1.15
)

// SegmentMultiplier boosts premium captions for price-insensitive audiences
// and budget/mid captions for budget-conscious ones.
func SegmentMultiplier(seg domain.Segment, tier domain.PriceTier) float64 {
	switch {
	case seg == domain.SegmentPriceInsensitive && tier == domain.TierPremium:
		return multiplierPriceInsensitivePremium
	case seg == domain.SegmentBudgetConscious && (tier == domain.TierBudget || tier == domain.TierMid):
		return multiplierBudgetConsciousLow
	default:
		return 1.0
	}
}

// DiversityBonus is in [0, 1]: 0.6 shrinking with recent use of the
// category, plus 0.2 each for an unused tier and an unused urgency flag.
func DiversityBonus(c domain.Caption, recent RecentUsage) float64 {
	bonus := 0.6 / float64(1+recent.CategoryCount(c.ContentCategory))
	if !recent.TierUsed(c.PriceTier) {
		bonus += 0.2
	}
	if !recent.UrgencyUsed(c.HasUrgency) {
		bonus += 0.2
	}
	return bonus
}

// Score evaluates one candidate. Candidates are scored in the order given,
// which fixes the order of random draws.
func Score(cand Candidate, seg domain.Segment, recent RecentUsage, src RandomSource) Outcome {
	out := Outcome{Caption: cand.Caption}

	if cand.Penalty <= penaltyHardCap {
		out.Verdict = Excluded
		out.Reason = ReasonBudgetExhausted
		out.Breakdown.Penalty = cand.Penalty
		return out
	}

	thompson, bounds := ThompsonSample(cand.Stats.Successes, cand.Stats.Failures, src)
	div := DiversityBonus(cand.Caption, recent)
	emv := cand.Stats.AvgEMV / emvScale
	mult := SegmentMultiplier(seg, cand.Caption.PriceTier)

	final := (thompson*weightThompson +
		div*weightDiversity +
		emv*weightEMV +
		cand.Penalty*weightPenalty) * mult

	out.Verdict = Included
	out.Score = final
	out.SortKey = final
	if cand.SoftDemoted {
		out.SortKey -= softDemotion
	}
	out.Bounds = bounds
	out.Breakdown = domain.ScoreBreakdown{
		Thompson:     thompson,
		Diversity:    div,
		EMVComponent: emv,
		Penalty:      cand.Penalty,
		Multiplier:   mult,
		SoftDemoted:  cand.SoftDemoted,
	}
	return out
}

// ScoreTier scores every candidate of one tier.
func ScoreTier(cands []Candidate, seg domain.Segment, recent RecentUsage, src RandomSource) []Outcome {
	out := make([]Outcome, 0, len(cands))
	for _, c := range cands {
		out = append(out, Score(c, seg, recent, src))
	}
	return out
}
