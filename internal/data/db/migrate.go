package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return ensurePostgresIndexes(db)
}

func ensurePostgresIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at_desc ON posts (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair_created ON messages (sender_id, receiver_id, created_at)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
