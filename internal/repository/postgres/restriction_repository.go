package postgres

import (
	"context"
	"errors"
	"fmt"

	"captionSelector/business/selection"
	"captionSelector/domain"

	"gorm.io/gorm"
)

type RestrictionRepository struct {
	DB *gorm.DB
}

var _ selection.RestrictionRepository = (*RestrictionRepository)(nil)

func NewRestrictionRepository(db *gorm.DB) *RestrictionRepository {
	return &RestrictionRepository{DB: db}
}

func (r *RestrictionRepository) GetActive(ctx context.Context, creatorID string) (domain.CreatorRestriction, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreatorRestriction{}, false, fmt.Errorf("context error: %w", err)
	}

	var row domain.CreatorRestriction
	err := r.DB.WithContext(ctx).
		Where("creator_id = ? AND is_active", creatorID).
		Order("version DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CreatorRestriction{}, false, nil
	}
	if err != nil {
		return domain.CreatorRestriction{}, false, fmt.Errorf("failed to get restriction: %w", err)
	}
	return row, true, nil
}

// Publish deactivates the creator's current record and inserts rec as the
// next version, in one transaction serialized per creator.
func (r *RestrictionRepository) Publish(ctx context.Context, rec domain.CreatorRestriction) (domain.CreatorRestriction, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "restriction:"+rec.CreatorID).Error; err != nil {
			return fmt.Errorf("lock creator: %w", err)
		}

		var current int
		if err := tx.Model(&domain.CreatorRestriction{}).
			Where("creator_id = ?", rec.CreatorID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&current).Error; err != nil {
			return fmt.Errorf("read version: %w", err)
		}

		if err := tx.Model(&domain.CreatorRestriction{}).
			Where("creator_id = ? AND is_active", rec.CreatorID).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate previous: %w", err)
		}

		rec.ID = 0
		rec.Version = current + 1
		rec.IsActive = true
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("failed to publish restriction: %w", err)
	}
	return rec, nil
}
