package models_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB wires the package globals to a fresh in-memory SQLite database
// named after the test. The single connection keeps the shared-cache memory
// database alive for the test's duration.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	config.SetDB(db)
	models.MigrateTable()
	return db
}

func seedWarehouse(t *testing.T, ctx context.Context, name string) *models.Warehouse {
	t.Helper()
	w, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: name, Location: "Harare"})
	if err != nil {
		t.Fatalf("CreateWarehouse(%s): %v", name, err)
	}
	return w
}

func seedItem(t *testing.T, ctx context.Context, sku string) *models.Item {
	t.Helper()
	item, err := models.CreateItem(ctx, &models.NewItem{
		Sku:            sku,
		Name:           "Item " + sku,
		UnitPrice:      decimal.NewFromInt(10),
		UnitCost:       decimal.NewFromInt(6),
		AvgDailyDemand: 5,
		LeadTimeDays:   7,
		SafetyStock:    10,
	})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", sku, err)
	}
	return item
}

func mustStock(t *testing.T, ctx context.Context, itemId int, warehouseId *int) int {
	t.Helper()
	stock, err := models.StockOf(ctx, itemId, warehouseId)
	if err != nil {
		t.Fatalf("StockOf: %v", err)
	}
	return stock
}

func movementCount(t *testing.T, db *gorm.DB, itemId int) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.StockMovement{}).Where("item_id = ?", itemId).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return count
}
