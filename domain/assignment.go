package domain

import (
	"time"
)

const DateLayout = "2006-01-02"

// CREATE TABLE public.caption_assignments (
//     id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     creator_id   TEXT NOT NULL,
//     caption_id   TEXT NOT NULL,
//     target_date  DATE NOT NULL,
//     price_tier   TEXT NOT NULL,
//     category     TEXT NOT NULL,
//     has_urgency  BOOLEAN NOT NULL DEFAULT FALSE,
//     strategy     TEXT NOT NULL DEFAULT 'exploit',
//     confidence   NUMERIC NOT NULL DEFAULT 0,
//     batch_id     TEXT NOT NULL,
//     active       BOOLEAN NOT NULL DEFAULT TRUE,
//     created_at   TIMESTAMPTZ DEFAULT NOW()
// );
// CREATE UNIQUE INDEX caption_assignments_active_key
//     ON caption_assignments (creator_id, caption_id, target_date) WHERE active;

type Assignment struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	CreatorID  string    `gorm:"column:creator_id;not null" json:"creator_id"`
	CaptionID  string    `gorm:"column:caption_id;not null" json:"caption_id"`
	TargetDate time.Time `gorm:"column:target_date;type:date;not null" json:"target_date"`
	PriceTier  PriceTier `gorm:"column:price_tier;not null" json:"price_tier"`
	Category   string    `gorm:"column:category;not null" json:"category"`
	HasUrgency bool      `gorm:"column:has_urgency;not null" json:"has_urgency"`
	Strategy   string    `gorm:"column:strategy;not null" json:"strategy"`
	Confidence float64   `gorm:"column:confidence;type:numeric" json:"confidence"`
	BatchID    string    `gorm:"column:batch_id;not null" json:"batch_id"`
	Active     bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Assignment) TableName() string {
	return "caption_assignments"
}

// AssignmentKey is the ledger idempotency key.
type AssignmentKey struct {
	CreatorID  string    `json:"creator_id"`
	CaptionID  string    `json:"caption_id"`
	TargetDate time.Time `json:"target_date"`
}

func (a Assignment) Key() AssignmentKey {
	return AssignmentKey{CreatorID: a.CreatorID, CaptionID: a.CaptionID, TargetDate: TruncateDate(a.TargetDate)}
}

// TruncateDate drops the clock part, keeping the calendar day in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CollidesWith reports whether two assignments book the same caption for the
// same creator on the same day or less than window apart.
func (a Assignment) CollidesWith(b Assignment, window time.Duration) bool {
	if a.CreatorID != b.CreatorID || a.CaptionID != b.CaptionID {
		return false
	}
	d := TruncateDate(a.TargetDate).Sub(TruncateDate(b.TargetDate))
	if d < 0 {
		d = -d
	}
	return d == 0 || d < window
}
