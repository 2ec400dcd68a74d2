//go:build !integration

package selection_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSelect_IndependentCreators(t *testing.T) {
	f := newFixture(t)
	var reqs []domain.SelectionRequest
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("creator-%d", i)
		seedCatalog(f, id, 0, 0, 0, 0)
		reqs = append(reqs, domain.SelectionRequest{CreatorID: id, BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 2, Bump: 1}})
	}
	// one shared catalog for the platform
	seedCatalog(f, "creator-0", 20, 0, 0, 5)
	reqs = append(reqs, domain.SelectionRequest{CreatorID: "ghost", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 1}})

	report, err := f.svc.BatchSelect(context.Background(), reqs, 3)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, len(reqs))
	assert.Equal(t, 8, report.Summary.Succeeded)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 0, report.Summary.Conflicts)

	for i, o := range report.Outcomes {
		assert.Equal(t, reqs[i].CreatorID, o.CreatorID)
	}
	last := report.Outcomes[len(reqs)-1]
	assert.True(t, errors.Is(last.Err, domain.ErrValidation))

	for _, o := range report.Outcomes[:8] {
		require.NoError(t, o.Err)
		assert.Len(t, o.Result.Tier(domain.TierBudget).Captions, 2)
		assert.Len(t, o.Result.Tier(domain.TierBump).Captions, 1)
	}
	assert.Len(t, f.repos.Ledger.All(), 8*3)
}

func TestBatchSelect_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.BatchSelect(ctx, []domain.SelectionRequest{{CreatorID: "a"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConflictRetryRequest(t *testing.T) {
	req := domain.SelectionRequest{CreatorID: "alpha", ExcludeCaptionIDs: []string{"x"}}

	_, ok := selection.ConflictRetryRequest(req, errors.New("boom"))
	assert.False(t, ok)

	retry, ok := selection.ConflictRetryRequest(req, &domain.AssignmentConflictError{
		CreatorID: "alpha",
		Conflicts: []domain.AssignmentKey{{CreatorID: "alpha", CaptionID: "y"}},
	})
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, retry.ExcludeCaptionIDs)
	assert.Equal(t, []string{"x"}, req.ExcludeCaptionIDs)
}

func seededBatch(t *testing.T, seed uint64) map[string][]domain.SelectedCaption {
	t.Helper()
	f := newFixture(t)
	f.svc.SetSourceFactory(selection.SeededFactory(seed))

	var reqs []domain.SelectionRequest
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("c%02d", i)
		seedCatalog(f, id, 0, 0, 0, 0)
		reqs = append(reqs, domain.SelectionRequest{
			CreatorID: id, BehavioralSegment: "Balanced",
			Counts: domain.TierCounts{Budget: 3}, TargetDate: now,
		})
	}
	seedCatalog(f, "c00", 40, 0, 0, 0)

	report, err := f.svc.BatchSelect(context.Background(), reqs, 8)
	require.NoError(t, err)

	out := map[string][]domain.SelectedCaption{}
	for _, o := range report.Outcomes {
		require.NoError(t, o.Err)
		out[o.CreatorID] = o.Result.Tier(domain.TierBudget).Captions
	}
	return out
}

func TestBatchSelect_SeededRunsReplay(t *testing.T) {
	first := seededBatch(t, 99)
	for run := 0; run < 5; run++ {
		assert.Equal(t, first, seededBatch(t, 99), "run %d", run)
	}

	other := seededBatch(t, 100)
	assert.NotEqual(t, first, other)
}
