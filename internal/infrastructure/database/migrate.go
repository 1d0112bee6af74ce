package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Custom types must exist before auto-migrate references them
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	if err := db.AutoMigrate(
		&model.EFTPayment{},
		&model.WebhookEvent{},
		&model.AuditLog{},
	); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes that GORM doesn't handle
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		// Serves the pending review queue
		`CREATE INDEX IF NOT EXISTS idx_eft_payments_pending ON eft_payments (created_at)
			WHERE eft_reference_number IS NOT NULL AND approved_at IS NULL AND rejected_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON webhook_events (created_at)
			WHERE status IN ('pending', 'failed')`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// createCustomTypes creates custom PostgreSQL types
func createCustomTypes(db *gorm.DB) error {
	var exists bool
	if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'webhook_status')`).Scan(&exists).Error; err != nil {
		return err
	}
	if !exists {
		if err := db.Exec(`CREATE TYPE webhook_status AS ENUM ('pending', 'processing', 'completed', 'failed')`).Error; err != nil {
			return err
		}
	}
	return nil
}
