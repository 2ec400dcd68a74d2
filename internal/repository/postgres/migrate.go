package postgres

import (
	"fmt"

	"captionSelector/domain"

	"gorm.io/gorm"
)

// Migrate creates the selection tables and the partial indexes gorm tags
// cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Creator{},
		&domain.Caption{},
		&domain.BanditStats{},
		&domain.CreatorRestriction{},
		&domain.Assignment{},
		&domain.SelectionConfig{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS caption_assignments_active_key
			ON caption_assignments (creator_id, caption_id, target_date) WHERE active`,
		`CREATE INDEX IF NOT EXISTS caption_assignments_creator_date
			ON caption_assignments (creator_id, target_date) WHERE active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS creator_restrictions_one_active
			ON creator_restrictions (creator_id) WHERE is_active`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
