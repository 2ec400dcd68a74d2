package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"github.com/redis/go-redis/v9"
)

const memberSep = "\x1f"

// UsageCounter keeps one sorted set per creator, scored by assignment
// creation time, so budget usage is a rolling window over the set.
type UsageCounter struct {
	client    *redis.Client
	retention time.Duration
}

var _ selection.UsageCounter = (*UsageCounter)(nil)

// NewUsageCounter keeps entries for retention; it must be at least the
// longest usage window any creator is configured with.
func NewUsageCounter(client *redis.Client, retention time.Duration) *UsageCounter {
	if retention <= 0 {
		retention = 8 * 24 * time.Hour
	}
	return &UsageCounter{client: client, retention: retention}
}

func usageKey(creatorID string) string {
	return fmt.Sprintf("usage:creator:%s", creatorID)
}

func encodeMember(a domain.Assignment) string {
	urgent := "0"
	if a.HasUrgency {
		urgent = "1"
	}
	return strings.Join([]string{
		a.CaptionID,
		domain.TruncateDate(a.TargetDate).Format(domain.DateLayout),
		a.Category,
		urgent,
	}, memberSep)
}

func decodeMember(m string) (category string, urgent bool, ok bool) {
	parts := strings.Split(m, memberSep)
	if len(parts) != 4 {
		return "", false, false
	}
	return parts[2], parts[3] == "1", true
}

func (u *UsageCounter) Record(ctx context.Context, rows []domain.Assignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	pipe := u.client.TxPipeline()
	keys := map[string]struct{}{}
	for _, a := range rows {
		created := a.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		key := usageKey(a.CreatorID)
		keys[key] = struct{}{}
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(created.UnixMilli()),
			Member: encodeMember(a),
		})
	}
	for key := range keys {
		pipe.Expire(ctx, key, u.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Forget drops deactivated assignments so they stop counting against the
// budget, matching the ledger's active filter. The cooldown sweep calls it
// with the rows it deactivated.
func (u *UsageCounter) Forget(ctx context.Context, rows []domain.Assignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	members := map[string][]any{}
	for _, a := range rows {
		key := usageKey(a.CreatorID)
		members[key] = append(members[key], encodeMember(a))
	}
	pipe := u.client.Pipeline()
	for key, m := range members {
		pipe.ZRem(ctx, key, m...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to forget usage: %w", err)
	}
	return nil
}

func (u *UsageCounter) CountSince(ctx context.Context, creatorID string, since time.Time) (selection.UsageCounts, error) {
	if err := ctx.Err(); err != nil {
		return selection.UsageCounts{}, fmt.Errorf("context error: %w", err)
	}

	key := usageKey(creatorID)
	cutoff := time.Now().Add(-u.retention).UnixMilli()

	pipe := u.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	members := pipe.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	})
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return selection.UsageCounts{}, fmt.Errorf("failed to read usage: %w", err)
	}

	counts := selection.UsageCounts{ByCategory: map[string]int{}}
	for _, m := range members.Val() {
		category, urgent, ok := decodeMember(m)
		if !ok {
			continue
		}
		counts.ByCategory[category]++
		if urgent {
			counts.Urgent++
		}
	}
	return counts, nil
}
