package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"gorm.io/gorm"
)

// AssignmentLedger appends to caption_assignments. Appends for one creator
// are serialized with a transaction-scoped advisory lock, and the partial
// unique index on (creator_id, caption_id, target_date) WHERE active backs
// the same-day case.
type AssignmentLedger struct {
	DB *gorm.DB
}

var (
	_ selection.AssignmentLedger = (*AssignmentLedger)(nil)
	_ selection.UsageCounter     = (*AssignmentLedger)(nil)
)

func NewAssignmentLedger(db *gorm.DB) *AssignmentLedger {
	return &AssignmentLedger{DB: db}
}

func (r *AssignmentLedger) ListActiveSince(ctx context.Context, creatorID string, since time.Time) ([]domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.Assignment
	if err := r.DB.WithContext(ctx).
		Where("creator_id = ? AND active AND target_date >= ?", creatorID, since.Format(domain.DateLayout)).
		Order("target_date, caption_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return rows, nil
}

func (r *AssignmentLedger) AppendBatch(ctx context.Context, rows []domain.Assignment, window time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	creatorID := rows[0].CreatorID
	captionIDs := make([]string, 0, len(rows))
	minDate, maxDate := domain.TruncateDate(rows[0].TargetDate), domain.TruncateDate(rows[0].TargetDate)
	for i := range rows {
		if rows[i].CreatorID != creatorID {
			return fmt.Errorf("append batch mixes creators %q and %q", creatorID, rows[i].CreatorID)
		}
		rows[i].TargetDate = domain.TruncateDate(rows[i].TargetDate)
		rows[i].Active = true
		captionIDs = append(captionIDs, rows[i].CaptionID)
		if rows[i].TargetDate.Before(minDate) {
			minDate = rows[i].TargetDate
		}
		if rows[i].TargetDate.After(maxDate) {
			maxDate = rows[i].TargetDate
		}
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "ledger:"+creatorID).Error; err != nil {
			return fmt.Errorf("lock creator: %w", err)
		}

		var existing []domain.Assignment
		if err := tx.
			Where("creator_id = ? AND active AND caption_id IN ? AND target_date BETWEEN ? AND ?",
				creatorID,
				captionIDs,
				minDate.Add(-window).Format(domain.DateLayout),
				maxDate.Add(window).Format(domain.DateLayout),
			).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("check existing assignments: %w", err)
		}

		var conflicts []domain.AssignmentKey
		for i, row := range rows {
			clash := false
			for _, e := range existing {
				if e.CollidesWith(row, window) {
					clash = true
					break
				}
			}
			for _, earlier := range rows[:i] {
				if earlier.CollidesWith(row, window) {
					clash = true
					break
				}
			}
			if clash {
				conflicts = append(conflicts, row.Key())
			}
		}
		if len(conflicts) > 0 {
			return &domain.AssignmentConflictError{CreatorID: creatorID, Conflicts: conflicts}
		}

		if err := tx.Create(&rows).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				keys := make([]domain.AssignmentKey, 0, len(rows))
				for _, row := range rows {
					keys = append(keys, row.Key())
				}
				return &domain.AssignmentConflictError{CreatorID: creatorID, Conflicts: keys}
			}
			return fmt.Errorf("insert assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		var conflict *domain.AssignmentConflictError
		if errors.As(err, &conflict) {
			return conflict
		}
		return fmt.Errorf("failed to append assignments: %w", err)
	}
	return nil
}

type usageRow struct {
	Category string `gorm:"column:category"`
	Total    int    `gorm:"column:total"`
	Urgent   int    `gorm:"column:urgent"`
}

// CountSince counts active assignments created since the given instant.
func (r *AssignmentLedger) CountSince(ctx context.Context, creatorID string, since time.Time) (selection.UsageCounts, error) {
	if err := ctx.Err(); err != nil {
		return selection.UsageCounts{}, fmt.Errorf("context error: %w", err)
	}

	var rows []usageRow
	if err := r.DB.WithContext(ctx).
		Model(&domain.Assignment{}).
		Select("category, COUNT(*) AS total, COUNT(*) FILTER (WHERE has_urgency) AS urgent").
		Where("creator_id = ? AND active AND created_at >= ?", creatorID, since).
		Group("category").
		Scan(&rows).Error; err != nil {
		return selection.UsageCounts{}, fmt.Errorf("failed to count usage: %w", err)
	}

	u := selection.UsageCounts{ByCategory: make(map[string]int, len(rows))}
	for _, row := range rows {
		u.ByCategory[row.Category] = row.Total
		u.Urgent += row.Urgent
	}
	return u, nil
}

// Record is a no-op: usage is counted from the ledger.
func (r *AssignmentLedger) Record(ctx context.Context, rows []domain.Assignment) error {
	return ctx.Err()
}
