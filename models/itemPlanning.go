package models

import (
	"context"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
)

// ItemPlanningColumns records which planning columns the items table actually
// carries. Deployed databases predate the current schema in places: older
// installs named the EOQ column eoq_qty and the reorder column reorder_level.
// Resolve once at startup and reuse; never inspect the schema per row.
type ItemPlanningColumns struct {
	Eoq          string // "" when absent
	ReorderPoint string
	SafetyStock  string
}

func (c ItemPlanningColumns) Any() bool {
	return c.Eoq != "" || c.ReorderPoint != "" || c.SafetyStock != ""
}

// ResolveItemPlanningColumns inspects the live items table and maps each
// planning concept to the column name this database uses.
func ResolveItemPlanningColumns() (ItemPlanningColumns, error) {
	db := config.GetDB()
	types, err := db.Migrator().ColumnTypes(&Item{})
	if err != nil {
		return ItemPlanningColumns{}, err
	}
	present := make(map[string]bool, len(types))
	for _, ct := range types {
		present[ct.Name()] = true
	}
	var cols ItemPlanningColumns
	for _, name := range []string{"eoq", "eoq_qty"} {
		if present[name] {
			cols.Eoq = name
			break
		}
	}
	for _, name := range []string{"reorder_point", "reorder_level"} {
		if present[name] {
			cols.ReorderPoint = name
			break
		}
	}
	if present["safety_stock"] {
		cols.SafetyStock = "safety_stock"
	}
	return cols, nil
}

// ApplyPlanningToItem copies one recommendation onto the item row, writing
// only the columns this schema has. Best effort: callers log the error and
// keep going, a missing item or column never fails the job.
func ApplyPlanningToItem(ctx context.Context, cols ItemPlanningColumns, row ResultRow) error {
	if !cols.Any() {
		return nil
	}
	updates := map[string]any{}
	if cols.Eoq != "" && row.Eoq != nil {
		updates[cols.Eoq] = *row.Eoq
	}
	if cols.ReorderPoint != "" && row.ReorderPoint != nil {
		updates[cols.ReorderPoint] = *row.ReorderPoint
	}
	if cols.SafetyStock != "" && row.SafetyStock != nil {
		updates[cols.SafetyStock] = *row.SafetyStock
	}
	if len(updates) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Item{}).
		Where("id = ?", row.ItemId).
		Updates(updates).Error
}
