//go:build !integration

package selection_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
	"captionSelector/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	repos *memory.Repositories
	svc   *selection.SelectionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	return &fixture{repos: repos, svc: newService(t, repos, repos.Ledger)}
}

func newService(t *testing.T, repos *memory.Repositories, ledger selection.AssignmentLedger) *selection.SelectionService {
	t.Helper()
	svc, err := selection.NewSelectionService(
		repos.Creators,
		repos.Captions,
		repos.Stats,
		repos.Restrictions,
		ledger,
		repos.Ledger,
		repos.Configs,
		selection.DefaultConfig(),
	)
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return now })
	svc.SetSourceFactory(func(domain.SelectionRequest) selection.RandomSource { return selection.NewSeededSource(42, 7) })
	return svc
}

func seedCatalog(f *fixture, creatorID string, budget, mid, premium, bump int) {
	f.repos.Creators.Put(domain.Creator{CreatorID: creatorID, Platform: "onlyfans", BehavioralSegment: "Budget-Conscious", IsActive: true})
	categories := []string{"tease", "bundle", "solo", "custom", "bts"}
	add := func(prefix string, tier domain.PriceTier, n int) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%03d", prefix, i)
			f.repos.Captions.Add(domain.Caption{
				CaptionID:        id,
				Text:             "caption text " + id,
				Platform:         "onlyfans",
				PriceTier:        tier,
				ContentCategory:  categories[i%len(categories)],
				PerformanceScore: 60,
			})
			f.repos.Stats.Put(domain.BanditStats{
				CaptionID: id,
				CreatorID: creatorID,
				Successes: i % 7,
				Failures:  (i * 3) % 5,
				AvgEMV:    float64(i % 40),
			})
		}
	}
	add("b", domain.TierBudget, budget)
	add("m", domain.TierMid, mid)
	add("p", domain.TierPremium, premium)
	add("u", domain.TierBump, bump)
}

func alphaRequest() domain.SelectionRequest {
	return domain.SelectionRequest{
		CreatorID:         "alpha",
		BehavioralSegment: "Budget-Conscious",
		Counts:            domain.TierCounts{Budget: 3, Mid: 2, Premium: 0, Bump: 2},
	}
}

func TestSelectCaptions_AlphaScenario(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 50, 30, 0, 10)

	res, err := f.svc.SelectCaptions(context.Background(), alphaRequest())
	require.NoError(t, err)

	assert.Len(t, res.Tier(domain.TierBudget).Captions, 3)
	assert.Len(t, res.Tier(domain.TierMid).Captions, 2)
	assert.Len(t, res.Tier(domain.TierPremium).Captions, 0)
	assert.Len(t, res.Tier(domain.TierBump).Captions, 2)

	for _, tier := range []domain.PriceTier{domain.TierBudget, domain.TierMid} {
		for _, c := range res.Tier(tier).Captions {
			assert.Equal(t, 1.15, c.Breakdown.Multiplier, c.CaptionID)
		}
	}
	for _, c := range res.Tier(domain.TierBump).Captions {
		assert.Equal(t, 1.0, c.Breakdown.Multiplier)
	}

	// 50 budget and 10 bump captions are below the 200/50 guardrails
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, domain.TierBudget, res.Warnings[0].Tier)
	assert.Equal(t, domain.TierBump, res.Warnings[1].Tier)
	assert.Equal(t, domain.FulfillmentFull, res.Tier(domain.TierBudget).Status)

	assert.Equal(t, domain.TruncateDate(now), res.TargetDate)
	assert.Equal(t, domain.SegmentBudgetConscious, res.Segment)
	assert.NotEmpty(t, res.BatchID)

	rows := f.repos.Ledger.All()
	assert.Len(t, rows, 7)
	for _, r := range rows {
		assert.Equal(t, res.BatchID, r.BatchID)
		assert.True(t, r.Active)
	}
}

func TestSelectCaptions_SortedByScoreWithinTier(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 50, 30, 0, 10)

	res, err := f.svc.SelectCaptions(context.Background(), alphaRequest())
	require.NoError(t, err)

	for _, ts := range res.Tiers {
		for i := 1; i < len(ts.Captions); i++ {
			prev, cur := ts.Captions[i-1], ts.Captions[i]
			assert.True(t, prev.FinalScore > cur.FinalScore ||
				(prev.FinalScore == cur.FinalScore && prev.CaptionID < cur.CaptionID))
		}
	}
}

func TestSelectCaptions_DeterministicWithFixedSource(t *testing.T) {
	run := func() domain.SelectionResult {
		f := newFixture(t)
		seedCatalog(f, "alpha", 50, 30, 5, 10)
		res, err := f.svc.SelectCaptions(context.Background(), alphaRequest())
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()

	require.Equal(t, len(a.Tiers), len(b.Tiers))
	for i := range a.Tiers {
		assert.Equal(t, a.Tiers[i].Captions, b.Tiers[i].Captions)
	}
}

func TestSelectCaptions_ColdStartCreator(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 5, 0, 0, 0)

	usage, err := f.svc.RecentUsage(context.Background(), "alpha", now)
	require.NoError(t, err)
	assert.NotNil(t, usage.Categories)
	assert.Empty(t, usage.Categories)

	res, err := f.svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID:         "alpha",
		BehavioralSegment: "Balanced",
		Counts:            domain.TierCounts{Budget: 2},
	})
	require.NoError(t, err)
	for _, c := range res.Tier(domain.TierBudget).Captions {
		assert.InDelta(t, 1.0, c.Breakdown.Diversity, 1e-12)
	}
}

func TestSelectCaptions_UnderSuppliedTier(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 2, 0, 0, 0)

	res, err := f.svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID:         "alpha",
		BehavioralSegment: "budget",
		Counts:            domain.TierCounts{Budget: 5, Premium: 1},
	})
	require.NoError(t, err)

	budget := res.Tier(domain.TierBudget)
	assert.Len(t, budget.Captions, 2)
	assert.Equal(t, 2, budget.Available)
	assert.Equal(t, domain.FulfillmentUnderSupplied, budget.Status)
	assert.Equal(t, domain.FulfillmentUnderSupplied, res.Tier(domain.TierPremium).Status)
	assert.True(t, res.Partial())
}

func TestSelectCaptions_HardRestrictionNeverSelected(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 10, 0, 0, 0)
	f.repos.Captions.Add(domain.Caption{
		CaptionID: "b-best", Text: "FORBIDDEN words here", Platform: "onlyfans",
		PriceTier: domain.TierBudget, ContentCategory: "tease", PerformanceScore: 99,
	})
	f.repos.Stats.Put(domain.BanditStats{CaptionID: "b-best", CreatorID: "alpha", Successes: 500, AvgEMV: 100})
	_, err := f.repos.Restrictions.Publish(context.Background(), domain.CreatorRestriction{
		CreatorID:            "alpha",
		HardPatterns:         datatypes.JSONSlice[string]{"forbidden"},
		RestrictedCategories: datatypes.JSONSlice[string]{"solo"},
		Scope:                domain.ScopeAll,
	})
	require.NoError(t, err)

	res, err := f.svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID:         "alpha",
		BehavioralSegment: "Balanced",
		Counts:            domain.TierCounts{Budget: 10},
	})
	require.NoError(t, err)

	for _, c := range res.Tier(domain.TierBudget).Captions {
		assert.NotEqual(t, "b-best", c.CaptionID)
		assert.NotEqual(t, "solo", c.Category)
	}
	assert.Equal(t, domain.FulfillmentUnderSupplied, res.Tier(domain.TierBudget).Status)
}

func TestSelectCaptions_MalformedHardPatternAbortsWithoutWriting(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 10, 0, 0, 0)
	_, err := f.repos.Restrictions.Publish(context.Background(), domain.CreatorRestriction{
		CreatorID:    "alpha",
		HardPatterns: datatypes.JSONSlice[string]{"(broken"},
	})
	require.NoError(t, err)

	_, err = f.svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID:         "alpha",
		BehavioralSegment: "Balanced",
		Counts:            domain.TierCounts{Budget: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamData))
	assert.Empty(t, f.repos.Ledger.All())
}

func TestSelectCaptions_Validation(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 3, 0, 0, 0)
	f.repos.Creators.Put(domain.Creator{CreatorID: "dormant", Platform: "onlyfans", IsActive: false})

	cases := map[string]domain.SelectionRequest{
		"missing creator":  {BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 1}},
		"unknown creator":  {CreatorID: "ghost", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 1}},
		"inactive creator": {CreatorID: "dormant", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 1}},
		"bad segment":      {CreatorID: "alpha", BehavioralSegment: "whales", Counts: domain.TierCounts{Budget: 1}},
		"negative count":   {CreatorID: "alpha", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: -1, Mid: 2}},
		"nothing asked":    {CreatorID: "alpha", BehavioralSegment: "Balanced"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SelectCaptions(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation), err.Error())
		})
	}
	assert.Empty(t, f.repos.Ledger.All())
}

type failingCaptions struct{}

func (failingCaptions) ListByPlatform(context.Context, string) ([]domain.Caption, error) {
	return nil, errors.New("connection refused")
}

func TestSelectCaptions_UpstreamFailure(t *testing.T) {
	repos := memory.NewRepositories()
	repos.Creators.Put(domain.Creator{CreatorID: "alpha", Platform: "onlyfans", IsActive: true})
	svc, err := selection.NewSelectionService(
		repos.Creators, failingCaptions{}, repos.Stats, repos.Restrictions,
		repos.Ledger, repos.Ledger, repos.Configs, selection.DefaultConfig(),
	)
	require.NoError(t, err)

	_, err = svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID: "alpha", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 1},
	})
	var up *domain.UpstreamDataError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "snapshot", up.Stage)
	assert.Equal(t, "alpha", up.CreatorID)
}

func TestSelectCaptions_CooldownExcludesRecentPicks(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 6, 0, 0, 0)
	req := domain.SelectionRequest{CreatorID: "alpha", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 3}}

	first, err := f.svc.SelectCaptions(context.Background(), req)
	require.NoError(t, err)

	req.TargetDate = now.AddDate(0, 0, 1)
	second, err := f.svc.SelectCaptions(context.Background(), req)
	require.NoError(t, err)

	firstIDs := map[string]bool{}
	for _, c := range first.Tier(domain.TierBudget).Captions {
		firstIDs[c.CaptionID] = true
	}
	for _, c := range second.Tier(domain.TierBudget).Captions {
		assert.False(t, firstIDs[c.CaptionID], "caption %s reused inside cooldown", c.CaptionID)
	}
	assert.Len(t, f.repos.Ledger.All(), 6)
}

func TestSelectCaptions_BudgetCapExcludesCategory(t *testing.T) {
	f := newFixture(t)
	f.repos.Creators.Put(domain.Creator{CreatorID: "alpha", Platform: "onlyfans", IsActive: true})
	f.repos.Captions.Add(
		domain.Caption{CaptionID: "capped", Platform: "onlyfans", PriceTier: domain.TierBudget, ContentCategory: "tease"},
		domain.Caption{CaptionID: "open", Platform: "onlyfans", PriceTier: domain.TierBudget, ContentCategory: "bundle"},
	)
	var history []domain.Assignment
	for i := 0; i < 20; i++ {
		history = append(history, domain.Assignment{
			CreatorID: "alpha", CaptionID: fmt.Sprintf("old-%d", i), TargetDate: now.AddDate(0, 0, -20),
			PriceTier: domain.TierBudget, Category: "tease", Active: true, CreatedAt: now.Add(-time.Hour),
		})
	}
	require.NoError(t, f.repos.Ledger.AppendBatch(context.Background(), history, 0))

	res, err := f.svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID: "alpha", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 2},
	})
	require.NoError(t, err)

	got := res.Tier(domain.TierBudget)
	require.Len(t, got.Captions, 1)
	assert.Equal(t, "open", got.Captions[0].CaptionID)
	assert.Equal(t, domain.FulfillmentUnderSupplied, got.Status)
}

func TestSelectCaptions_ConfigOverride(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 5, 0, 0, 0)
	require.NoError(t, f.repos.Configs.UpsertConfig(context.Background(), domain.SelectionConfig{
		CreatorID:     "alpha",
		MinPoolBudget: 3,
	}))

	res, err := f.svc.SelectCaptions(context.Background(), domain.SelectionRequest{
		CreatorID: "alpha", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

type blockingConfigs struct{ *memory.ConfigRepository }

func (blockingConfigs) GetConfig(ctx context.Context, _ string) (domain.SelectionConfig, bool, error) {
	<-ctx.Done()
	return domain.SelectionConfig{}, false, ctx.Err()
}

type failingConfigs struct{ *memory.ConfigRepository }

func (failingConfigs) GetConfig(context.Context, string) (domain.SelectionConfig, bool, error) {
	return domain.SelectionConfig{}, false, errors.New("db down")
}

func serviceWithConfigs(t *testing.T, f *fixture, configs selection.ConfigRepository) *selection.SelectionService {
	t.Helper()
	cfg := selection.DefaultConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	svc, err := selection.NewSelectionService(
		f.repos.Creators, f.repos.Captions, f.repos.Stats, f.repos.Restrictions,
		f.repos.Ledger, f.repos.Ledger, configs, cfg,
	)
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestSelectCaptions_ConfigReadIsBounded(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 10, 5, 0, 5)
	svc := serviceWithConfigs(t, f, blockingConfigs{f.repos.Configs})

	done := make(chan error, 1)
	go func() {
		_, err := svc.SelectCaptions(context.Background(), alphaRequest())
		done <- err
	}()

	select {
	case err := <-done:
		var up *domain.UpstreamDataError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "config", up.Stage)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("SelectCaptions did not honour the read timeout on the config override")
	}
	assert.Empty(t, f.repos.Ledger.All())
}

func TestSelectCaptions_ConfigReadFailureAbortsWithoutWriting(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 10, 5, 0, 5)
	svc := serviceWithConfigs(t, f, failingConfigs{f.repos.Configs})

	_, err := svc.SelectCaptions(context.Background(), alphaRequest())
	var up *domain.UpstreamDataError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "config", up.Stage)
	assert.Empty(t, f.repos.Ledger.All())

	_, err = svc.RecentUsage(context.Background(), "alpha", now)
	assert.ErrorIs(t, err, domain.ErrUpstreamData)
}

// racingLedger lets another writer claim the same captions between the
// snapshot read and the append.
type racingLedger struct {
	*memory.Ledger
	once sync.Once
}

func (r *racingLedger) AppendBatch(ctx context.Context, rows []domain.Assignment, window time.Duration) error {
	r.once.Do(func() {
		stolen := make([]domain.Assignment, 0, 1)
		stolen = append(stolen, rows[0])
		stolen[0].BatchID = "other-run"
		_ = r.Ledger.AppendBatch(ctx, stolen, window)
	})
	return r.Ledger.AppendBatch(ctx, rows, window)
}

func TestSelectCaptions_ConcurrentClaimSurfacesConflict(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f, "alpha", 10, 0, 0, 0)
	racing := &racingLedger{Ledger: f.repos.Ledger}
	svc := newService(t, f.repos, racing)

	req := domain.SelectionRequest{CreatorID: "alpha", BehavioralSegment: "Balanced", Counts: domain.TierCounts{Budget: 3}}
	_, err := svc.SelectCaptions(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAssignmentConflict))

	var conflict *domain.AssignmentConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)

	// only the competing run's row exists
	rows := f.repos.Ledger.All()
	require.Len(t, rows, 1)
	assert.Equal(t, "other-run", rows[0].BatchID)

	retry, ok := selection.ConflictRetryRequest(req, err)
	require.True(t, ok)
	res, err := svc.SelectCaptions(context.Background(), retry)
	require.NoError(t, err)
	for _, c := range res.Tier(domain.TierBudget).Captions {
		assert.NotEqual(t, conflict.Conflicts[0].CaptionID, c.CaptionID)
	}
}
