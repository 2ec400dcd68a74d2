package main

import (
	"context"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
	"captionSelector/internal/repository/memory"
)

// dryRunLedger reads history from the real ledger and keeps writes in
// memory, so conflicts inside one run are still detected.
type dryRunLedger struct {
	source  selection.AssignmentLedger
	pending *memory.Ledger
}

func newDryRunLedger(source selection.AssignmentLedger) *dryRunLedger {
	return &dryRunLedger{source: source, pending: &memory.Ledger{}}
}

func (d *dryRunLedger) ListActiveSince(ctx context.Context, creatorID string, since time.Time) ([]domain.Assignment, error) {
	rows, err := d.source.ListActiveSince(ctx, creatorID, since)
	if err != nil {
		return nil, err
	}
	local, err := d.pending.ListActiveSince(ctx, creatorID, since)
	if err != nil {
		return nil, err
	}
	return append(rows, local...), nil
}

func (d *dryRunLedger) AppendBatch(ctx context.Context, rows []domain.Assignment, window time.Duration) error {
	if len(rows) == 0 {
		return nil
	}
	since := domain.TruncateDate(rows[0].TargetDate).Add(-window)
	existing, err := d.source.ListActiveSince(ctx, rows[0].CreatorID, since)
	if err != nil {
		return err
	}

	var conflicts []domain.AssignmentKey
	for _, row := range rows {
		for _, e := range existing {
			if e.CollidesWith(row, window) {
				conflicts = append(conflicts, row.Key())
				break
			}
		}
	}
	if len(conflicts) > 0 {
		return &domain.AssignmentConflictError{CreatorID: rows[0].CreatorID, Conflicts: conflicts}
	}
	return d.pending.AppendBatch(ctx, rows, window)
}
