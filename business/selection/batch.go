package selection

import (
	"context"
	"errors"
	"fmt"

	"captionSelector/domain"
	"captionSelector/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const defaultBatchWorkers = 4

// CreatorOutcome is one creator's result in a batch. Exactly one of Result
// and Err is meaningful.
type CreatorOutcome struct {
	CreatorID string
	Result    domain.SelectionResult
	Err       error
}

type BatchSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Partial   int `json:"partial"`
	Conflicts int `json:"conflicts"`
	Warnings  int `json:"warnings"`
}

type BatchReport struct {
	Outcomes []CreatorOutcome
	Summary  BatchSummary
}

// BatchSelect runs independent selections with at most workers in flight.
// One creator's failure does not stop the others; outcomes keep the order
// of requests. A ledger conflict is retried once with the conflicting
// captions excluded.
func (s *SelectionService) BatchSelect(ctx context.Context, reqs []domain.SelectionRequest, workers int) (BatchReport, error) {
	if err := ctx.Err(); err != nil {
		return BatchReport{}, fmt.Errorf("context error: %w", err)
	}
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	outcomes := make([]CreatorOutcome, len(reqs))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.SelectCaptions(ctx, req)
			if retry, ok := ConflictRetryRequest(req, err); ok {
				logger.Info("batch_conflict_retry", "creator_id", req.CreatorID, "excluded", len(retry.ExcludeCaptionIDs))
				res, err = s.SelectCaptions(ctx, retry)
			}
			outcomes[i] = CreatorOutcome{CreatorID: req.CreatorID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			report.Summary.Failed++
			if errors.Is(o.Err, domain.ErrAssignmentConflict) {
				report.Summary.Conflicts++
			}
			continue
		}
		report.Summary.Succeeded++
		report.Summary.Warnings += len(o.Result.Warnings)
		if o.Result.Partial() {
			report.Summary.Partial++
		}
	}

	logger.Info("batch_selection_completed",
		"trace_id", TraceIDFromContext(ctx),
		"creators", len(reqs),
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed,
		"conflicts", report.Summary.Conflicts,
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("context error: %w", err)
	}
	return report, nil
}

// ConflictRetryRequest derives a retry from an assignment conflict: the same
// request with the conflicting captions excluded. ok is false for any other
// error.
func ConflictRetryRequest(req domain.SelectionRequest, err error) (domain.SelectionRequest, bool) {
	var conflict *domain.AssignmentConflictError
	if !errors.As(err, &conflict) {
		return req, false
	}
	retry := req
	retry.ExcludeCaptionIDs = append(append([]string{}, req.ExcludeCaptionIDs...), conflict.CaptionIDs()...)
	return retry, true
}
