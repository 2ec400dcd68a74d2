package postgres

import (
	"context"
	"fmt"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"gorm.io/gorm"
)

type CaptionRepository struct {
	DB *gorm.DB
}

var _ selection.CaptionRepository = (*CaptionRepository)(nil)

func NewCaptionRepository(db *gorm.DB) *CaptionRepository {
	return &CaptionRepository{DB: db}
}

// ListByPlatform returns the platform's catalog; an empty platform returns
// every caption.
func (r *CaptionRepository) ListByPlatform(ctx context.Context, platform string) ([]domain.Caption, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.Caption
	q := r.DB.WithContext(ctx).Model(&domain.Caption{})
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	if err := q.Order("caption_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list captions: %w", err)
	}
	return rows, nil
}

type StatsRepository struct {
	DB *gorm.DB
}

var _ selection.StatsRepository = (*StatsRepository)(nil)

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

func (r *StatsRepository) ListForCreator(ctx context.Context, creatorID string) ([]domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.BanditStats
	if err := r.DB.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list bandit stats: %w", err)
	}
	for _, row := range rows {
		if row.Successes < 0 || row.Failures < 0 {
			return nil, fmt.Errorf("bandit stats for caption %q have negative counts", row.CaptionID)
		}
	}
	return rows, nil
}
