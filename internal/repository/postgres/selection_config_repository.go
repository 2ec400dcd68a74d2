package postgres

import (
	"context"
	"errors"
	"fmt"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SelectionConfigRepository struct {
	DB *gorm.DB
}

var _ selection.ConfigRepository = (*SelectionConfigRepository)(nil)

func NewSelectionConfigRepository(db *gorm.DB) *SelectionConfigRepository {
	return &SelectionConfigRepository{DB: db}
}

func (r *SelectionConfigRepository) GetConfig(ctx context.Context, creatorID string) (domain.SelectionConfig, bool, error) {
	var cfg domain.SelectionConfig

	err := r.DB.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SelectionConfig{}, false, nil
	}
	if err != nil {
		return domain.SelectionConfig{}, false, fmt.Errorf("failed to get selection config: %w", err)
	}
	return cfg, true, nil
}

func (r *SelectionConfigRepository) UpsertConfig(ctx context.Context, cfg domain.SelectionConfig) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cooldown_days",
				"max_per_category",
				"max_urgent_per_week",
				"min_pool_budget",
				"min_pool_mid",
				"min_pool_premium",
				"min_pool_bump",
				"min_performance_score",
				"explore_width",
				"updated_at",
			}),
		}).
		Create(&cfg).Error
}
