package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
	"gorm.io/gorm"
)

type Item struct {
	ID          int     `gorm:"primary_key" json:"id"`
	Sku         string  `gorm:"size:100;not null;uniqueIndex" json:"sku"`
	Barcode     *string `gorm:"size:191;uniqueIndex" json:"barcode"`
	Name        string  `gorm:"size:191;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	SupplierId  *int    `gorm:"index" json:"supplier_id"`
	Unit        string  `gorm:"size:50;default:pcs" json:"unit"`

	UnitPrice decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"unit_price"`
	UnitCost  decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"unit_cost"`
	OrderCost *decimal.Decimal `gorm:"type:decimal(12,2)" json:"order_cost"`

	// TotalStock is a denormalized cache of the ledger-derived sum across all
	// warehouses. The ledger is authoritative; this field is recomputed after
	// every movement write and must never be used as a write source of truth.
	TotalStock int `gorm:"not null;default:0" json:"total_stock"`

	AvgDailyDemand int              `gorm:"default:0" json:"avg_daily_demand"`
	LeadTimeDays   int              `gorm:"default:0" json:"lead_time_days"`
	SafetyStock    int              `gorm:"default:0" json:"safety_stock"`
	ReorderPoint   int              `gorm:"default:0" json:"reorder_point"`
	Eoq            *decimal.Decimal `gorm:"type:decimal(12,2)" json:"eoq"`

	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Sku            string           `json:"sku" validate:"required,max=100"`
	Barcode        *string          `json:"barcode" validate:"omitempty,max=191"`
	Name           string           `json:"name" validate:"required,max=191"`
	Description    string           `json:"description"`
	SupplierId     *int             `json:"supplier_id"`
	Unit           string           `json:"unit" validate:"max=50"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	UnitCost       decimal.Decimal  `json:"unit_cost"`
	OrderCost      *decimal.Decimal `json:"order_cost"`
	AvgDailyDemand int              `json:"avg_daily_demand" validate:"gte=0"`
	LeadTimeDays   int              `json:"lead_time_days" validate:"gte=0"`
	SafetyStock    int              `json:"safety_stock" validate:"gte=0"`
	ReorderPoint   int              `json:"reorder_point" validate:"gte=0"`

	// Optional seed stock: when both are set, item creation also writes an
	// opening entry movement into the given warehouse, attributed to UserId.
	OpeningStockQty         int  `json:"opening_stock_qty" validate:"gte=0"`
	OpeningStockWarehouseId *int `json:"opening_stock_warehouse_id"`
	UserId                  *int `json:"user_id"`
}

// ItemWithStock is the read shape used by listings: the item joined with its
// supplier name plus the per-warehouse ledger breakdown.
type ItemWithStock struct {
	Item
	SupplierName string           `json:"supplier_name"`
	Warehouses   []WarehouseStock `json:"warehouses"`
}

func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {
	if fields := utils.ValidateStruct(input); fields != nil {
		return nil, fmt.Errorf("invalid item input: %v", fields)
	}
	db := config.GetDB()

	unit := input.Unit
	if unit == "" {
		unit = "pcs"
	}
	item := Item{
		Sku:            input.Sku,
		Barcode:        input.Barcode,
		Name:           input.Name,
		Description:    input.Description,
		SupplierId:     input.SupplierId,
		Unit:           unit,
		UnitPrice:      input.UnitPrice,
		UnitCost:       input.UnitCost,
		OrderCost:      input.OrderCost,
		AvgDailyDemand: input.AvgDailyDemand,
		LeadTimeDays:   input.LeadTimeDays,
		SafetyStock:    input.SafetyStock,
		ReorderPoint:   input.ReorderPoint,
		IsActive:       utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	if input.OpeningStockQty > 0 && input.OpeningStockWarehouseId != nil {
		ref := "opening stock"
		_, err := AddEntry(ctx, &NewEntry{
			ItemId:      item.ID,
			Quantity:    input.OpeningStockQty,
			WarehouseId: *input.OpeningStockWarehouseId,
			UserId:      input.UserId,
			SupplierId:  input.SupplierId,
			Reference:   &ref,
		})
		if err != nil {
			return nil, err
		}
		// Pick up the total-stock cache written by the movement.
		if err := db.WithContext(ctx).First(&item, item.ID).Error; err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func GetItem(ctx context.Context, id int) (*ItemWithStock, error) {
	db := config.GetDB()
	var row ItemWithStock
	err := db.WithContext(ctx).Model(&Item{}).
		Select("items.*, COALESCE(suppliers.name, '') AS supplier_name").
		Joins("LEFT JOIN suppliers ON suppliers.id = items.supplier_id").
		Where("items.id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	warehouses, err := StockByWarehouse(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	row.Warehouses = warehouses
	return &row, nil
}

// FindItemBySKUOrBarcode backs the barcode-scanner lookup path: the scanned
// code may be either the sku or the dedicated barcode.
func FindItemBySKUOrBarcode(ctx context.Context, code string) (*ItemWithStock, error) {
	db := config.GetDB()
	var item Item
	err := db.WithContext(ctx).
		Where("sku = ? OR (barcode IS NOT NULL AND barcode = ?)", code, code).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return GetItem(ctx, item.ID)
}

func AllItems(ctx context.Context) ([]ItemWithStock, error) {
	db := config.GetDB()
	var rows []ItemWithStock
	err := db.WithContext(ctx).Model(&Item{}).
		Select("items.*, COALESCE(suppliers.name, '') AS supplier_name").
		Joins("LEFT JOIN suppliers ON suppliers.id = items.supplier_id").
		Order("items.sku ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		warehouses, err := StockByWarehouse(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		rows[i].Warehouses = warehouses
	}
	return rows, nil
}

func ActiveItemCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Item{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// RecalculateTotalStock rewrites the item's cached total from the ledger and
// reports whether the cached value was wrong. Every movement-writing path
// calls this inside its own transaction; it is also invoked standalone by the
// inventory-rebuild tool.
func RecalculateTotalStock(tx *gorm.DB, itemId int) (bool, error) {
	total, err := stockOf(tx, itemId, nil)
	if err != nil {
		return false, err
	}
	if total < 0 {
		// Possible only with inconsistent pre-existing data or misuse of
		// adjustments. Surfaced, never clamped.
		config.GetLogger().WithField("item_id", itemId).
			Warnf("ledger-derived total stock is negative (%d)", total)
	}
	var cached int
	if err := tx.Model(&Item{}).Where("id = ?", itemId).Select("total_stock").Scan(&cached).Error; err != nil {
		return false, err
	}
	if cached == total {
		return false, nil
	}
	err = tx.Model(&Item{}).Where("id = ?", itemId).Update("total_stock", total).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
