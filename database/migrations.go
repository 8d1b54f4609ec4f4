package database

import (
	"fmt"

	"github.com/viktsys/utsref/models"
	"gorm.io/gorm"
)

// Migrate creates the tables that accumulate across runs. Reference tables
// (contracts, md/trade servers) are not migrated here: they are replaced wholesale.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CTPMDLatency{}); err != nil {
		return fmt.Errorf("failed to migrate ctp_md_latency: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ctp_md_latency_address
		ON ctp_md_latency (address)
	`).Error; err != nil {
		return fmt.Errorf("failed to create latency address index: %w", err)
	}

	return nil
}
