package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"captionSelector/domain"
	"captionSelector/pkg/logger"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

type CaptionRepository interface {
	ListByPlatform(ctx context.Context, platform string) ([]domain.Caption, error)
}

type StatsRepository interface {
	ListForCreator(ctx context.Context, creatorID string) ([]domain.BanditStats, error)
}

type CreatorRepository interface {
	GetCreator(ctx context.Context, creatorID string) (domain.Creator, bool, error)
}

// AssignmentLedger is the append-only assignment store. AppendBatch is all
// or nothing: when any row collides with an active assignment for the same
// creator and caption within window of its target date, nothing is written
// and an *domain.AssignmentConflictError lists the collisions.
type AssignmentLedger interface {
	ListActiveSince(ctx context.Context, creatorID string, since time.Time) ([]domain.Assignment, error)
	AppendBatch(ctx context.Context, rows []domain.Assignment, window time.Duration) error
}

// snapshot is the reference data one request reads, fetched fresh.
type snapshot struct {
	catalog     []domain.Caption
	stats       map[string]domain.BanditStats
	restriction *domain.CreatorRestriction
	assignments []domain.Assignment
	usage       UsageCounts
}

func newSnapshotBreaker() *gobreaker.CircuitBreaker[*snapshot] {
	return gobreaker.NewCircuitBreaker[*snapshot](gobreaker.Settings{
		Name:        "reference-snapshot",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// a cancelled caller says nothing about the store's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit_breaker_state", "name", name, "from", from.String(), "to", to.String())
			switch to {
			case gobreaker.StateClosed:
				SnapshotBreakerState.Set(0)
			case gobreaker.StateHalfOpen:
				SnapshotBreakerState.Set(1)
			case gobreaker.StateOpen:
				SnapshotBreakerState.Set(2)
			}
		},
	})
}

// loadSnapshot reads every reference input concurrently under one read
// timeout. Any failure aborts the request.
func (s *SelectionService) loadSnapshot(
	ctx context.Context,
	creator domain.Creator,
	since time.Time,
	usageSince time.Time,
	cfg Config,
) (*snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	snap, err := s.breaker.Execute(func() (*snapshot, error) {
		rctx, cancel := context.WithTimeout(ctx, cfg.readTimeout())
		defer cancel()

		snap := &snapshot{}
		g, gctx := errgroup.WithContext(rctx)

		g.Go(func() error {
			rows, err := s.captions.ListByPlatform(gctx, creator.Platform)
			if err != nil {
				return fmt.Errorf("load captions: %w", err)
			}
			snap.catalog = rows
			return nil
		})
		g.Go(func() error {
			rows, err := s.stats.ListForCreator(gctx, creator.CreatorID)
			if err != nil {
				return fmt.Errorf("load bandit stats: %w", err)
			}
			m := make(map[string]domain.BanditStats, len(rows))
			for _, r := range rows {
				m[r.CaptionID] = r
			}
			snap.stats = m
			return nil
		})
		g.Go(func() error {
			r, ok, err := s.restrictions.GetActive(gctx, creator.CreatorID)
			if err != nil {
				return fmt.Errorf("load restriction: %w", err)
			}
			if ok {
				snap.restriction = &r
			}
			return nil
		})
		g.Go(func() error {
			rows, err := s.ledger.ListActiveSince(gctx, creator.CreatorID, since)
			if err != nil {
				return fmt.Errorf("load assignments: %w", err)
			}
			snap.assignments = rows
			return nil
		})
		g.Go(func() error {
			u, err := s.usage.CountSince(gctx, creator.CreatorID, usageSince)
			if err != nil {
				return fmt.Errorf("load usage counts: %w", err)
			}
			if u.ByCategory == nil {
				u.ByCategory = map[string]int{}
			}
			snap.usage = u
			return nil
		})

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return nil, domain.NewUpstreamDataError("snapshot", creator.CreatorID, err)
	}
	return snap, nil
}
