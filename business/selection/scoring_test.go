//go:build !integration

package selection

import (
	"testing"

	"captionSelector/domain"

	"github.com/stretchr/testify/assert"
)

func TestSegmentMultiplier(t *testing.T) {
	cases := []struct {
		seg  domain.Segment
		tier domain.PriceTier
		want float64
	}{
		{domain.SegmentPriceInsensitive, domain.TierPremium, 1.25},
		{domain.SegmentPriceInsensitive, domain.TierBudget, 1.0},
		{domain.SegmentBudgetConscious, domain.TierBudget, 1.15},
		{domain.SegmentBudgetConscious, domain.TierMid, 1.15},
		{domain.SegmentBudgetConscious, domain.TierPremium, 1.0},
		{domain.SegmentBudgetConscious, domain.TierBump, 1.0},
		{domain.SegmentBalanced, domain.TierPremium, 1.0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SegmentMultiplier(c.seg, c.tier), "%s/%s", c.seg, c.tier)
	}
}

func TestDiversityBonus_ColdStartIsMax(t *testing.T) {
	c := makeCaption("c1", domain.TierBudget, "tease")
	assert.InDelta(t, 1.0, DiversityBonus(c, coldUsage("alpha")), 1e-12)
}

func TestDiversityBonus_ShrinksWithUsage(t *testing.T) {
	recent := BuildRecentUsage("alpha", domain.TruncateDate(testNow).AddDate(0, 0, -7), []domain.Assignment{
		{CreatorID: "alpha", CaptionID: "a", TargetDate: testNow, Category: "tease", PriceTier: domain.TierBudget, Active: true},
		{CreatorID: "alpha", CaptionID: "b", TargetDate: testNow, Category: "tease", PriceTier: domain.TierBudget, Active: true},
	})

	used := makeCaption("c1", domain.TierBudget, "tease")
	// 0.6/3, tier used, non-urgent flag used
	assert.InDelta(t, 0.2, DiversityBonus(used, recent), 1e-12)

	fresh := makeCaption("c2", domain.TierMid, "bundle")
	fresh.HasUrgency = true
	assert.InDelta(t, 1.0, DiversityBonus(fresh, recent), 1e-12)
}

func TestScore_Formula(t *testing.T) {
	cand := Candidate{
		Caption: makeCaption("c1", domain.TierBudget, "tease"),
		Stats:   domain.BanditStats{AvgEMV: 20},
		Penalty: -0.15,
	}
	out := Score(cand, domain.SegmentBudgetConscious, coldUsage("alpha"), zeroSource())

	assert.Equal(t, Included, out.Verdict)
	// thompson 0.5 (neutral interval, zero draw), diversity 1.0, emv 0.2
	want := (0.5*0.70 + 1.0*0.15 + 0.2*0.15 - 0.15*0.10) * 1.15
	assert.InDelta(t, want, out.Score, 1e-12)
	assert.Equal(t, out.Score, out.SortKey)
	assert.Equal(t, domain.ScoreBreakdown{
		Thompson:     0.5,
		Diversity:    1.0,
		EMVComponent: 0.2,
		Penalty:      -0.15,
		Multiplier:   1.15,
	}, out.Breakdown)
}

func TestScore_BudgetExhaustedIsExcluded(t *testing.T) {
	cand := Candidate{
		Caption: makeCaption("c1", domain.TierBudget, "tease"),
		Stats:   domain.BanditStats{Successes: 1000, AvgEMV: 10000},
		Penalty: -1.0,
	}
	src := zeroSource()
	out := Score(cand, domain.SegmentBalanced, coldUsage("alpha"), src)

	assert.Equal(t, Excluded, out.Verdict)
	assert.Equal(t, ReasonBudgetExhausted, out.Reason)
	assert.Equal(t, 0, src.i, "excluded candidates draw no randomness")
}

func TestScore_SoftDemotedSortsBelow(t *testing.T) {
	cand := Candidate{Caption: makeCaption("c1", domain.TierMid, "tease"), SoftDemoted: true}
	out := Score(cand, domain.SegmentBalanced, coldUsage("alpha"), zeroSource())

	assert.Equal(t, Included, out.Verdict)
	assert.True(t, out.Breakdown.SoftDemoted)
	assert.InDelta(t, out.Score-1000, out.SortKey, 1e-9)
}
