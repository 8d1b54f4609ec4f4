package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const replaceBatchSize = 500

// ReplaceTable drops the table backing T, recreates it and inserts rows, all in one
// transaction. An empty rows slice leaves an empty table behind.
func ReplaceTable[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	var model T

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := tx.Migrator()
		if m.HasTable(&model) {
			if err := m.DropTable(&model); err != nil {
				return fmt.Errorf("failed to drop table: %w", err)
			}
		}
		if err := m.CreateTable(&model); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, replaceBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert rows: %w", err)
		}
		return nil
	})
}
