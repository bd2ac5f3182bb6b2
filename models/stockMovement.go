package models

import (
	"context"
	"errors"
	"time"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovement is the append-only inventory ledger. Rows are created by the
// Add* operations below and never updated or deleted; current stock is always
// computed from the ledger, never stored in it. A transfer between warehouses
// is two linked rows (one debit, one credit), not one row with both sides set.
type StockMovement struct {
	ID              int          `gorm:"primary_key" json:"id"`
	ItemId          int          `gorm:"index;not null" json:"item_id"`
	BatchId         *int         `gorm:"index" json:"batch_id"`
	WarehouseFromId *int         `gorm:"index" json:"warehouse_from_id"`
	WarehouseToId   *int         `gorm:"index" json:"warehouse_to_id"`
	SupplierId      *int         `gorm:"index" json:"supplier_id"`
	RawSupplierName *string      `gorm:"size:255" json:"raw_supplier_name"`
	UserId          *int         `gorm:"index" json:"user_id"`
	Quantity        int          `gorm:"not null" json:"quantity"`
	MovementType    MovementType `gorm:"size:20;not null;index" json:"movement_type"`
	Reference       *string      `gorm:"size:191" json:"reference"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

type WarehouseStock struct {
	WarehouseId   int    `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
	Stock         int    `json:"stock"`
}

// signed-sum convention over movement types, evaluated per warehouse
const stockSumCase = `COALESCE(SUM(CASE
	WHEN sm.movement_type = 'entry'      AND sm.warehouse_to_id   = w.id THEN  sm.quantity
	WHEN sm.movement_type = 'exit'       AND sm.warehouse_from_id = w.id THEN -sm.quantity
	WHEN sm.movement_type = 'transfer'   AND sm.warehouse_to_id   = w.id THEN  sm.quantity
	WHEN sm.movement_type = 'transfer'   AND sm.warehouse_from_id = w.id THEN -sm.quantity
	WHEN sm.movement_type = 'adjustment' AND sm.warehouse_to_id   = w.id THEN  sm.quantity
	WHEN sm.movement_type = 'adjustment' AND sm.warehouse_from_id = w.id THEN -sm.quantity
	ELSE 0
END), 0)`

func stockOf(tx *gorm.DB, itemId int, warehouseId *int) (int, error) {
	sql := `SELECT ` + stockSumCase + ` AS stock
		FROM warehouses w
		LEFT JOIN stock_movements sm
		       ON sm.item_id = ?
		      AND (sm.warehouse_from_id = w.id OR sm.warehouse_to_id = w.id)`
	args := []any{itemId}
	if warehouseId != nil {
		sql += ` WHERE w.id = ?`
		args = append(args, *warehouseId)
	}
	var stock int
	if err := tx.Raw(sql, args...).Scan(&stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}

// StockOf returns the current stock of an item in one warehouse, or across
// all warehouses when warehouseId is nil. An item with no movements has
// stock 0; absence is never an error.
func StockOf(ctx context.Context, itemId int, warehouseId *int) (int, error) {
	return stockOf(config.GetDB().WithContext(ctx), itemId, warehouseId)
}

// StockByWarehouse returns one row per known warehouse (zero-movement
// warehouses included), sorted by warehouse name.
func StockByWarehouse(ctx context.Context, itemId int) ([]WarehouseStock, error) {
	db := config.GetDB()
	var rows []WarehouseStock
	err := db.WithContext(ctx).Raw(`
		SELECT w.id AS warehouse_id,
		       w.name AS warehouse_name,
		       `+stockSumCase+` AS stock
		FROM warehouses w
		LEFT JOIN stock_movements sm
		       ON sm.item_id = ?
		      AND (sm.warehouse_from_id = w.id OR sm.warehouse_to_id = w.id)
		GROUP BY w.id, w.name
		ORDER BY w.name ASC`, itemId).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// warehouseExists guards movement writers against dangling warehouse ids.
// Movements reference warehouses without a database-enforced FK.
func warehouseExists(tx *gorm.DB, warehouseIds ...int) error {
	var count int64
	if err := tx.Model(&Warehouse{}).Where("id IN ?", warehouseIds).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(warehouseIds)) {
		return utils.ErrorWarehouseRequired
	}
	return nil
}

// lockItem loads the item under a row lock. All movement writers lock the
// item row first, so the stock pre-check and the ledger insert of concurrent
// exits/transfers against the same item are serialized.
func lockItem(tx *gorm.DB, itemId int) (*Item, error) {
	var item Item
	q := tx
	if tx.Dialector.Name() == "mysql" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Take(&item, itemId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type NewEntry struct {
	ItemId          int
	Quantity        int
	WarehouseId     int
	UserId          *int
	SupplierId      *int
	RawSupplierName *string
	BatchId         *int
	Reference       *string
}

// AddEntry credits WarehouseId with Quantity. Entries have no stock
// precondition and always succeed once the arguments are valid.
func AddEntry(ctx context.Context, input *NewEntry) (int, error) {
	if input.Quantity <= 0 {
		return 0, utils.ErrorQuantityInvalid
	}
	if input.WarehouseId <= 0 {
		return 0, utils.ErrorWarehouseRequired
	}
	db := config.GetDB()
	movement := StockMovement{
		ItemId:          input.ItemId,
		BatchId:         input.BatchId,
		WarehouseToId:   &input.WarehouseId,
		SupplierId:      input.SupplierId,
		RawSupplierName: input.RawSupplierName,
		UserId:          input.UserId,
		Quantity:        input.Quantity,
		MovementType:    MovementTypeEntry,
		Reference:       input.Reference,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := warehouseExists(tx, input.WarehouseId); err != nil {
			return err
		}
		if _, err := lockItem(tx, input.ItemId); err != nil {
			return err
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		_, err := RecalculateTotalStock(tx, input.ItemId)
		return err
	})
	if err != nil {
		return 0, err
	}
	return movement.ID, nil
}

type NewExit struct {
	ItemId      int
	Quantity    int
	WarehouseId int
	UserId      *int
	Reference   *string
}

// AddExit debits WarehouseId with Quantity. Returns (false, nil) without
// writing anything when the warehouse does not hold enough stock; callers
// branch on the boolean in normal operation.
func AddExit(ctx context.Context, input *NewExit) (bool, error) {
	if input.Quantity <= 0 {
		return false, utils.ErrorQuantityInvalid
	}
	if input.WarehouseId <= 0 {
		return false, utils.ErrorWarehouseRequired
	}
	db := config.GetDB()
	ok := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := warehouseExists(tx, input.WarehouseId); err != nil {
			return err
		}
		if _, err := lockItem(tx, input.ItemId); err != nil {
			return err
		}
		stock, err := stockOf(tx, input.ItemId, &input.WarehouseId)
		if err != nil {
			return err
		}
		if stock < input.Quantity {
			return nil // insufficient stock, no ledger write
		}
		movement := StockMovement{
			ItemId:          input.ItemId,
			WarehouseFromId: &input.WarehouseId,
			UserId:          input.UserId,
			Quantity:        input.Quantity,
			MovementType:    MovementTypeExit,
			Reference:       input.Reference,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		if _, err := RecalculateTotalStock(tx, input.ItemId); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

type NewTransfer struct {
	ItemId          int
	Quantity        int
	FromWarehouseId int
	ToWarehouseId   int
	UserId          *int
	Reference       *string
}

// AddTransfer moves Quantity between two warehouses as exactly two ledger
// rows: a debit on the source and a credit on the destination. Returns
// (false, nil) without writes when the source lacks stock.
func AddTransfer(ctx context.Context, input *NewTransfer) (bool, error) {
	if input.Quantity <= 0 {
		return false, utils.ErrorQuantityInvalid
	}
	if input.FromWarehouseId <= 0 || input.ToWarehouseId <= 0 {
		return false, utils.ErrorWarehouseRequired
	}
	if input.FromWarehouseId == input.ToWarehouseId {
		return false, utils.ErrorSameWarehouse
	}
	db := config.GetDB()
	ok := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := warehouseExists(tx, input.FromWarehouseId, input.ToWarehouseId); err != nil {
			return err
		}
		if _, err := lockItem(tx, input.ItemId); err != nil {
			return err
		}
		stock, err := stockOf(tx, input.ItemId, &input.FromWarehouseId)
		if err != nil {
			return err
		}
		if stock < input.Quantity {
			return nil // not enough in source
		}
		outgoing := StockMovement{
			ItemId:          input.ItemId,
			WarehouseFromId: &input.FromWarehouseId,
			UserId:          input.UserId,
			Quantity:        input.Quantity,
			MovementType:    MovementTypeTransfer,
			Reference:       input.Reference,
		}
		incoming := StockMovement{
			ItemId:        input.ItemId,
			WarehouseToId: &input.ToWarehouseId,
			UserId:        input.UserId,
			Quantity:      input.Quantity,
			MovementType:  MovementTypeTransfer,
			Reference:     input.Reference,
		}
		if err := tx.Create(&outgoing).Error; err != nil {
			return err
		}
		if err := tx.Create(&incoming).Error; err != nil {
			return err
		}
		if _, err := RecalculateTotalStock(tx, input.ItemId); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

type NewAdjustment struct {
	ItemId      int
	Delta       int // signed; credited to WarehouseId as-is
	WarehouseId int
	UserId      *int
	Reason      *string
}

// AddAdjustment writes a corrective movement crediting WarehouseId with the
// signed delta directly. There is no sufficiency check: adjustments may push
// stock in either direction, and a resulting negative balance is logged as an
// anomaly rather than rejected.
func AddAdjustment(ctx context.Context, input *NewAdjustment) (int, error) {
	if input.Delta == 0 {
		return 0, utils.ErrorZeroAdjustment
	}
	if input.WarehouseId <= 0 {
		return 0, utils.ErrorWarehouseRequired
	}
	reference := input.Reason
	if reference == nil || *reference == "" {
		r := "manual adjustment"
		reference = &r
	}
	db := config.GetDB()
	movement := StockMovement{
		ItemId:        input.ItemId,
		WarehouseToId: &input.WarehouseId,
		UserId:        input.UserId,
		Quantity:      input.Delta,
		MovementType:  MovementTypeAdjustment,
		Reference:     reference,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := warehouseExists(tx, input.WarehouseId); err != nil {
			return err
		}
		if _, err := lockItem(tx, input.ItemId); err != nil {
			return err
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		after, err := stockOf(tx, input.ItemId, &input.WarehouseId)
		if err != nil {
			return err
		}
		if after < 0 {
			config.GetLogger().WithFields(map[string]any{
				"item_id":      input.ItemId,
				"warehouse_id": input.WarehouseId,
				"stock":        after,
			}).Warn("adjustment left warehouse stock negative")
		}
		_, err = RecalculateTotalStock(tx, input.ItemId)
		return err
	})
	if err != nil {
		return 0, err
	}
	return movement.ID, nil
}

// MovementRow is the reporting shape for the global movement listing.
type MovementRow struct {
	ID              int       `json:"id"`
	ItemName        string    `json:"item_name"`
	Quantity        int       `json:"quantity"`
	MovementType    string    `json:"movement_type"`
	Reference       *string   `json:"reference"`
	WarehouseFrom   *string   `json:"warehouse_from"`
	WarehouseTo     *string   `json:"warehouse_to"`
	SupplierId      *int      `json:"supplier_id"`
	RawSupplierName *string   `json:"raw_supplier_name"`
	SupplierName    *string   `json:"supplier_name"`
	CreatedAt       time.Time `json:"created_at"`
}

func AllMovements(ctx context.Context) ([]MovementRow, error) {
	db := config.GetDB()
	var rows []MovementRow
	err := db.WithContext(ctx).Raw(`
		SELECT sm.id,
		       i.name AS item_name,
		       sm.quantity,
		       sm.movement_type,
		       sm.reference,
		       wf.name AS warehouse_from,
		       wt.name AS warehouse_to,
		       sm.supplier_id,
		       sm.raw_supplier_name,
		       s.name AS supplier_name,
		       sm.created_at
		FROM stock_movements sm
		JOIN items i ON sm.item_id = i.id
		LEFT JOIN suppliers s ON sm.supplier_id = s.id
		LEFT JOIN warehouses wf ON sm.warehouse_from_id = wf.id
		LEFT JOIN warehouses wt ON sm.warehouse_to_id = wt.id
		ORDER BY sm.created_at DESC, sm.id DESC`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
