package database

import (
	"fmt"

	"icomag/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Owner{},
		&models.OwnerPattern{},
		&models.Tag{},
		&models.TagPattern{},
		&models.TransactionBatch{},
		&models.Transaction{},
		&models.TransactionTag{},
		&models.LpgRefill{},
		&models.LpgRefillEntry{},
		&models.Setting{},
		&models.Attachment{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
