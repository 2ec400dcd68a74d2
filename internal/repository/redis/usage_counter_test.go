//go:build !integration

package redis

import (
	"testing"
	"time"

	"captionSelector/domain"

	"github.com/stretchr/testify/assert"
)

func TestMemberRoundTrip(t *testing.T) {
	a := domain.Assignment{
		CreatorID:  "alpha",
		CaptionID:  "cap-1",
		TargetDate: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
		Category:   "tease|bundle",
		HasUrgency: true,
	}
	m := encodeMember(a)

	category, urgent, ok := decodeMember(m)
	assert.True(t, ok)
	assert.Equal(t, "tease|bundle", category)
	assert.True(t, urgent)
}

func TestMemberDistinctPerDay(t *testing.T) {
	a := domain.Assignment{CaptionID: "cap-1", TargetDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	b := a
	b.TargetDate = b.TargetDate.AddDate(0, 0, 1)
	assert.NotEqual(t, encodeMember(a), encodeMember(b))
}

func TestDecodeMember_Malformed(t *testing.T) {
	_, _, ok := decodeMember("garbage")
	assert.False(t, ok)
}

func TestMember_IgnoresLedgerState(t *testing.T) {
	a := domain.Assignment{CreatorID: "alpha", CaptionID: "cap-1", TargetDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Category: "tease"}
	stored := a
	stored.Active = true
	stored.CreatedAt = time.Now()
	stored.TargetDate = stored.TargetDate.Add(6 * time.Hour)

	deactivated := stored
	deactivated.Active = false

	assert.Equal(t, encodeMember(a), encodeMember(deactivated))
}
