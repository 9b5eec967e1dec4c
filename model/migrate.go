package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every table this
// server owns. Called once at startup, before any handler runs.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Account{},
		&Character{},
		&SaveSlot{},
		&AuditLog{},
	); err != nil {
		return fmt.Errorf("model: migrate: %w", err)
	}
	return nil
}
