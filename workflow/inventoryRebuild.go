package workflow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
	"gorm.io/gorm"
)

// RebuildTotalStock recomputes one item's total_stock cache from the
// movement ledger.
func RebuildTotalStock(ctx context.Context, db *gorm.DB, itemId int) (bool, error) {
	var changed bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		changed, err = models.RecalculateTotalStock(tx, itemId)
		return err
	})
	return changed, err
}

// RebuildAllTotalStock walks every item and recomputes its cache. Returns the
// number of items whose cached value was wrong. With continueOnError a
// failing item is logged and skipped instead of aborting the sweep.
func RebuildAllTotalStock(ctx context.Context, db *gorm.DB, logger *logrus.Logger, continueOnError bool) (int, error) {
	var ids []int
	if err := db.WithContext(ctx).Model(&models.Item{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	corrected := 0
	for _, id := range ids {
		changed, err := RebuildTotalStock(ctx, db, id)
		if err != nil {
			if continueOnError {
				logger.WithFields(logrus.Fields{"field": "RebuildAllTotalStock", "item_id": id}).
					Errorf("rebuild failed, skipping: %v", err)
				continue
			}
			return corrected, fmt.Errorf("item %d: %w", id, err)
		}
		if changed {
			corrected++
		}
	}
	return corrected, nil
}
