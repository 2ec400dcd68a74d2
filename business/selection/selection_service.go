package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"captionSelector/domain"
	"captionSelector/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

type SelectionService struct {
	creators     CreatorRepository
	captions     CaptionRepository
	stats        StatsRepository
	restrictions RestrictionRepository
	ledger       AssignmentLedger
	usage        UsageCounter
	cfgRepo      ConfigRepository
	defaultCfg   Config

	filter    *RestrictionFilter
	breaker   *gobreaker.CircuitBreaker[*snapshot]
	validate  *validator.Validate
	newSource SourceFactory
	nowFn     func() time.Time
}

func NewSelectionService(
	creators CreatorRepository,
	captions CaptionRepository,
	stats StatsRepository,
	restrictions RestrictionRepository,
	ledger AssignmentLedger,
	usage UsageCounter,
	cfgRepo ConfigRepository,
	defaultCfg Config,
) (*SelectionService, error) {
	filter, err := NewRestrictionFilter(defaultRuleCacheSize)
	if err != nil {
		return nil, err
	}
	return &SelectionService{
		creators:     creators,
		captions:     captions,
		stats:        stats,
		restrictions: restrictions,
		ledger:       ledger,
		usage:        usage,
		cfgRepo:      cfgRepo,
		defaultCfg:   defaultCfg,
		filter:       filter,
		breaker:      newSnapshotBreaker(),
		validate:     validator.New(),
		newSource:    entropyFactory,
		nowFn:        time.Now,
	}, nil
}

// SetSourceFactory replaces the per-request randomness, e.g. with a seeded
// source for reproducible runs.
func (s *SelectionService) SetSourceFactory(f SourceFactory) {
	if f != nil {
		s.newSource = f
	}
}

func (s *SelectionService) SetClock(now func() time.Time) {
	if now != nil {
		s.nowFn = now
	}
}

// SelectCaptions runs one selection for a creator and appends the picks to
// the assignment ledger. Pool shortfalls are reported in the result; only
// validation, upstream and ledger conflicts are errors. Nothing is written
// unless every pick commits.
func (s *SelectionService) SelectCaptions(ctx context.Context, req domain.SelectionRequest) (domain.SelectionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SelectionResult{}, fmt.Errorf("context error: %w", err)
	}

	seg, err := s.validateRequest(req)
	if err != nil {
		SelectionsTotal.WithLabelValues(string(seg), "invalid").Inc()
		return domain.SelectionResult{}, err
	}

	now := s.nowFn()
	target := req.TargetDate
	if target.IsZero() {
		target = now
	}
	target = domain.TruncateDate(target)

	creator, err := s.lookupCreator(ctx, req.CreatorID)
	if err != nil {
		SelectionsTotal.WithLabelValues(string(seg), outcomeLabel(err)).Inc()
		return domain.SelectionResult{}, err
	}

	cfg, err := s.loadConfig(ctx, creator.CreatorID)
	if err != nil {
		SelectionsTotal.WithLabelValues(string(seg), "upstream_error").Inc()
		return domain.SelectionResult{}, err
	}
	since := lookbackStart(target, cfg)
	usageSince := now.Add(-cfg.usageWindow())

	snap, err := s.loadSnapshot(ctx, creator, since, usageSince, cfg)
	if err != nil {
		SelectionsTotal.WithLabelValues(string(seg), "upstream_error").Inc()
		return domain.SelectionResult{}, err
	}

	rules, err := s.filter.Compile(creator.CreatorID, snap.restriction)
	if err != nil {
		SelectionsTotal.WithLabelValues(string(seg), "upstream_error").Inc()
		return domain.SelectionResult{}, err
	}

	recent := BuildRecentUsage(creator.CreatorID, since, snap.assignments)

	exclude := make(map[string]struct{}, len(req.ExcludeCaptionIDs))
	for _, id := range req.ExcludeCaptionIDs {
		exclude[id] = struct{}{}
	}

	pool := BuildPool(PoolInput{
		Catalog:   snap.catalog,
		Stats:     snap.stats,
		Rules:     rules,
		Recent:    recent,
		Usage:     snap.usage,
		ExcludeID: exclude,
		Requested: req.Counts,
		Config:    cfg,
	})

	seeded := req
	seeded.TargetDate = target
	src := s.newSource(seeded)
	result := domain.SelectionResult{
		BatchID:    uuid.NewString(),
		CreatorID:  creator.CreatorID,
		Segment:    seg,
		TargetDate: target,
		Tiers:      make([]domain.TierSelection, 0, len(domain.AllTiers)),
		Warnings:   pool.Warnings,
	}
	budgetExcluded := 0
	for _, tier := range domain.AllTiers {
		k := req.Counts.For(tier)
		if k == 0 {
			result.Tiers = append(result.Tiers, Allocate(tier, nil, 0, cfg.ExploreWidth))
			continue
		}
		outcomes := ScoreTier(pool.ByTier[tier], seg, recent, src)
		for _, o := range outcomes {
			if o.Verdict == Excluded {
				budgetExcluded++
			}
		}
		result.Tiers = append(result.Tiers, Allocate(tier, outcomes, k, cfg.ExploreWidth))
	}
	result.Diversity = CheckDiversity(result.Tiers)

	rows := assignmentsFor(result, now)
	if len(rows) > 0 {
		if err := s.commit(ctx, creator.CreatorID, rows, cfg); err != nil {
			SelectionsTotal.WithLabelValues(string(seg), outcomeLabel(err)).Inc()
			return domain.SelectionResult{}, err
		}
	}

	s.recordMetrics(result, pool, budgetExcluded)

	tid := TraceIDFromContext(ctx)
	logger.Info("selection_completed",
		"trace_id", tid,
		"creator_id", creator.CreatorID,
		"segment", seg,
		"batch_id", result.BatchID,
		"target_date", target.Format(domain.DateLayout),
		"budget", len(result.Tier(domain.TierBudget).Captions),
		"mid", len(result.Tier(domain.TierMid).Captions),
		"premium", len(result.Tier(domain.TierPremium).Captions),
		"bump", len(result.Tier(domain.TierBump).Captions),
		"excluded", sumCounts(pool.Excluded)+budgetExcluded,
		"warnings", len(result.Warnings),
	)

	return result, nil
}

func (s *SelectionService) validateRequest(req domain.SelectionRequest) (domain.Segment, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", domain.NewValidationError("request", req.CreatorID, "%v", err)
	}
	seg, ok := domain.ParseSegment(req.BehavioralSegment)
	if !ok {
		return "", domain.NewValidationError("request", req.CreatorID, "unrecognized behavioral segment %q", req.BehavioralSegment)
	}
	if req.Counts.Total() == 0 {
		return seg, domain.NewValidationError("request", req.CreatorID, "no captions requested")
	}
	return seg, nil
}

func (s *SelectionService) lookupCreator(ctx context.Context, creatorID string) (domain.Creator, error) {
	rctx, cancel := context.WithTimeout(ctx, s.defaultCfg.readTimeout())
	defer cancel()

	creator, ok, err := s.creators.GetCreator(rctx, creatorID)
	if err != nil {
		return domain.Creator{}, domain.NewUpstreamDataError("creator", creatorID, err)
	}
	if !ok {
		return domain.Creator{}, domain.NewValidationError("request", creatorID, "unknown creator")
	}
	if !creator.IsActive {
		return domain.Creator{}, domain.NewValidationError("request", creatorID, "creator is inactive")
	}
	return creator, nil
}

// commit appends the batch under the write timeout, then feeds the usage
// counter. A usage failure is logged; the ledger is the source of truth.
func (s *SelectionService) commit(ctx context.Context, creatorID string, rows []domain.Assignment, cfg Config) error {
	wctx, cancel := context.WithTimeout(ctx, cfg.writeTimeout())
	defer cancel()

	if err := s.ledger.AppendBatch(wctx, rows, cfg.cooldown()); err != nil {
		var conflict *domain.AssignmentConflictError
		if errors.As(err, &conflict) {
			AssignmentConflictsTotal.Inc()
			logger.Warn("assignment_conflict",
				"trace_id", TraceIDFromContext(ctx),
				"creator_id", creatorID,
				"captions", conflict.CaptionIDs(),
			)
			return err
		}
		return domain.NewUpstreamDataError("ledger", creatorID, err)
	}

	if err := s.usage.Record(wctx, rows); err != nil {
		logger.Error("usage_record_failed", "creator_id", creatorID, "error", err)
	}
	return nil
}

func assignmentsFor(res domain.SelectionResult, now time.Time) []domain.Assignment {
	rows := []domain.Assignment{}
	for _, t := range res.Tiers {
		for _, c := range t.Captions {
			rows = append(rows, domain.Assignment{
				CreatorID:  res.CreatorID,
				CaptionID:  c.CaptionID,
				TargetDate: res.TargetDate,
				PriceTier:  t.Tier,
				Category:   c.Category,
				HasUrgency: c.HasUrgency,
				Strategy:   c.Strategy,
				Confidence: c.Confidence,
				BatchID:    res.BatchID,
				Active:     true,
				CreatedAt:  now,
			})
		}
	}
	return rows
}

func (s *SelectionService) recordMetrics(res domain.SelectionResult, p Pool, budgetExcluded int) {
	outcome := "full"
	if res.Partial() {
		outcome = "partial"
	}
	SelectionsTotal.WithLabelValues(string(res.Segment), outcome).Inc()

	for _, t := range res.Tiers {
		for _, c := range t.Captions {
			CaptionsSelectedTotal.WithLabelValues(string(t.Tier), c.Strategy).Inc()
		}
	}
	for reason, n := range p.Excluded {
		CandidatesExcludedTotal.WithLabelValues(string(reason)).Add(float64(n))
	}
	if budgetExcluded > 0 {
		CandidatesExcludedTotal.WithLabelValues(string(ReasonBudgetExhausted)).Add(float64(budgetExcluded))
	}
	for _, w := range res.Warnings {
		PoolWarningsTotal.WithLabelValues(string(w.Tier)).Inc()
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrAssignmentConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUpstreamData):
		return "upstream_error"
	default:
		return "error"
	}
}

func sumCounts[K comparable](m map[K]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
