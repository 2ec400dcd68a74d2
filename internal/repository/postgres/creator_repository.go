package postgres

import (
	"context"
	"errors"
	"fmt"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"gorm.io/gorm"
)

type CreatorRepository struct {
	DB *gorm.DB
}

var _ selection.CreatorRepository = (*CreatorRepository)(nil)

func NewCreatorRepository(db *gorm.DB) *CreatorRepository {
	return &CreatorRepository{DB: db}
}

func (r *CreatorRepository) GetCreator(ctx context.Context, creatorID string) (domain.Creator, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Creator{}, false, fmt.Errorf("context error: %w", err)
	}

	var c domain.Creator
	err := r.DB.WithContext(ctx).First(&c, "creator_id = ?", creatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Creator{}, false, nil
	}
	if err != nil {
		return domain.Creator{}, false, fmt.Errorf("failed to get creator: %w", err)
	}
	return c, true, nil
}

func (r *CreatorRepository) ListActive(ctx context.Context) ([]domain.Creator, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.Creator
	if err := r.DB.WithContext(ctx).
		Where("is_active").
		Order("creator_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	return rows, nil
}
