package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"paygate/internal/models"
)

// Migrate ensures required tables exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.PaymentIntegration{},
		&models.TerminalCheckoutRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
