package selection

import (
	"fmt"

	"captionSelector/domain"
)

const (
	maxCategoryShare      = 0.40
	diversityIssuePenalty = 0.2
)

// CheckDiversity reports category concentration, duplicate ids and a
// single-tier selection across the whole result.
func CheckDiversity(tiers []domain.TierSelection) domain.DiversityReport {
	rep := domain.DiversityReport{IsDiverse: true, Issues: []string{}, Score: 1}

	total := 0
	categories := map[string]int{}
	ids := map[string]int{}
	usedTiers := map[domain.PriceTier]struct{}{}
	for _, t := range tiers {
		for _, c := range t.Captions {
			total++
			categories[c.Category]++
			ids[c.CaptionID]++
			usedTiers[t.Tier] = struct{}{}
		}
	}
	if total == 0 {
		return rep
	}

	for _, cat := range sortedKeys(categories) {
		share := float64(categories[cat]) / float64(total)
		if share > maxCategoryShare {
			rep.Issues = append(rep.Issues, fmt.Sprintf("category %q is %.0f%% of the selection", cat, share*100))
		}
	}
	for _, id := range sortedKeys(ids) {
		if ids[id] > 1 {
			rep.Issues = append(rep.Issues, fmt.Sprintf("caption %q selected %d times", id, ids[id]))
		}
	}
	if total > 1 && len(usedTiers) == 1 {
		rep.Issues = append(rep.Issues, "all captions share one price tier")
	}

	rep.Score = 1 - diversityIssuePenalty*float64(len(rep.Issues))
	if rep.Score < 0 {
		rep.Score = 0
	}
	rep.IsDiverse = len(rep.Issues) == 0
	return rep
}
