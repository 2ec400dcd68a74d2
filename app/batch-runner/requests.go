package main

import (
	"slices"
	"sort"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
)

// buildRequests plans one request per creator, optionally limited to only.
// Creators whose stored segment is not recognised fall back to Balanced.
func buildRequests(creators []domain.Creator, only []string, target time.Time, ppv, bump int) []domain.SelectionRequest {
	reqs := make([]domain.SelectionRequest, 0, len(creators))
	for _, c := range creators {
		if len(only) > 0 && !slices.Contains(only, c.CreatorID) {
			continue
		}
		seg, ok := domain.ParseSegment(c.BehavioralSegment)
		if !ok {
			seg = domain.SegmentBalanced
		}
		reqs = append(reqs, domain.SelectionRequest{
			CreatorID:         c.CreatorID,
			BehavioralSegment: string(seg),
			Counts:            selection.PlanTierCounts(seg, ppv, bump),
			TargetDate:        target,
		})
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatorID < reqs[j].CreatorID })
	return reqs
}
