package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
)

// Ledger is an append-only assignment ledger guarded by one mutex, so the
// conflict check and the insert happen as one step. It also serves usage
// counts straight from its rows.
type Ledger struct {
	mu   sync.Mutex
	rows []domain.Assignment
	seq  uint64
}

func (l *Ledger) ListActiveSince(ctx context.Context, creatorID string, since time.Time) ([]domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []domain.Assignment{}
	for _, a := range l.rows {
		if a.Active && a.CreatorID == creatorID && !a.TargetDate.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (l *Ledger) AppendBatch(ctx context.Context, rows []domain.Assignment, window time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var conflicts []domain.AssignmentKey
	for i, row := range rows {
		clash := false
		for _, existing := range l.rows {
			if existing.Active && existing.CollidesWith(row, window) {
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
		return &domain.AssignmentConflictError{CreatorID: rows[0].CreatorID, Conflicts: conflicts}
	}

	now := time.Now().UTC()
	for _, row := range rows {
		l.seq++
		row.ID = l.seq
		row.TargetDate = domain.TruncateDate(row.TargetDate)
		row.Active = true
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		l.rows = append(l.rows, row)
	}
	return nil
}

// Deactivate clears every active assignment dated before cutoff, the way the
// external cooldown sweep does.
func (l *Ledger) Deactivate(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for i := range l.rows {
		if l.rows[i].Active && l.rows[i].TargetDate.Before(cutoff) {
			l.rows[i].Active = false
			n++
		}
	}
	return n
}

// All returns a copy of every row, in insertion order.
func (l *Ledger) All() []domain.Assignment {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Assignment, len(l.rows))
	copy(out, l.rows)
	return out
}

func (l *Ledger) CountSince(ctx context.Context, creatorID string, since time.Time) (selection.UsageCounts, error) {
	if err := ctx.Err(); err != nil {
		return selection.UsageCounts{}, fmt.Errorf("context error: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	u := selection.UsageCounts{ByCategory: map[string]int{}}
	for _, a := range l.rows {
		if !a.Active || a.CreatorID != creatorID || a.CreatedAt.Before(since) {
			continue
		}
		u.ByCategory[a.Category]++
		if a.HasUrgency {
			u.Urgent++
		}
	}
	return u, nil
}

// Record is a no-op: usage is read from the ledger rows themselves.
func (l *Ledger) Record(ctx context.Context, rows []domain.Assignment) error {
	return ctx.Err()
}
