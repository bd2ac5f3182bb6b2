// seed-dev loads a small development fixture set: two warehouses, two
// suppliers, and a handful of items with opening stock. Existing names and
// SKUs are skipped, so rerunning after a partial failure is safe.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	logger := config.GetLogger()
	ctx := context.Background()

	warehouses := []models.NewWarehouse{
		{Name: "Main Warehouse", Location: "Harare", Contact: "+263 77 000 0001"},
		{Name: "Bulawayo Depot", Location: "Bulawayo", Contact: "+263 77 000 0002"},
	}
	warehouseIds := map[string]int{}
	for i := range warehouses {
		w, err := models.CreateWarehouse(ctx, &warehouses[i])
		if err != nil {
			logger.WithField("name", warehouses[i].Name).Infof("warehouse skipped: %v", err)
			existing, lookupErr := models.AllWarehouses(ctx)
			if lookupErr != nil {
				fmt.Fprintf(os.Stderr, "seed failed: %v\n", lookupErr)
				os.Exit(1)
			}
			for _, e := range existing {
				warehouseIds[e.Name] = e.ID
			}
			continue
		}
		warehouseIds[w.Name] = w.ID
	}

	suppliers := []models.NewSupplier{
		{Name: "Continental Traders", Email: "orders@continental.example", Phone: "+263 4 700 100", LeadTimeDay: 14},
		{Name: "Mashonaland Supplies", Email: "sales@mashsupplies.example", Phone: "+263 4 700 200", LeadTimeDay: 7},
	}
	supplierIds := map[string]int{}
	for i := range suppliers {
		s, err := models.CreateSupplier(ctx, &suppliers[i])
		if err != nil {
			logger.WithField("name", suppliers[i].Name).Infof("supplier skipped: %v", err)
			continue
		}
		supplierIds[s.Name] = s.ID
	}

	mainWh := warehouseIds["Main Warehouse"]
	continental := intPtrOrNil(supplierIds["Continental Traders"])
	mash := intPtrOrNil(supplierIds["Mashonaland Supplies"])

	items := []models.NewItem{
		{
			Sku: "VM-0001", Name: "2L Engine Oil", Unit: "pcs",
			UnitPrice: decimal.NewFromInt(12), UnitCost: decimal.NewFromInt(8),
			AvgDailyDemand: 6, LeadTimeDays: 14, SafetyStock: 20,
			SupplierId:              continental,
			OpeningStockQty:         120,
			OpeningStockWarehouseId: &mainWh,
		},
		{
			Sku: "VM-0002", Name: "Brake Pad Set", Unit: "set",
			UnitPrice: decimal.NewFromInt(35), UnitCost: decimal.NewFromInt(22),
			AvgDailyDemand: 3, LeadTimeDays: 7, SafetyStock: 10,
			SupplierId:              mash,
			OpeningStockQty:         60,
			OpeningStockWarehouseId: &mainWh,
		},
		{
			Sku: "VM-0003", Name: "Air Filter", Unit: "pcs",
			UnitPrice: decimal.NewFromInt(9), UnitCost: decimal.NewFromInt(5),
			AvgDailyDemand: 4, LeadTimeDays: 10, SafetyStock: 15,
			SupplierId:              continental,
			OpeningStockQty:         90,
			OpeningStockWarehouseId: &mainWh,
		},
		{
			Sku: "VM-0004", Name: "Wiper Blade Pair", Unit: "pair",
			UnitPrice: decimal.NewFromInt(7), UnitCost: decimal.NewFromInt(4),
			AvgDailyDemand: 2, LeadTimeDays: 5, SafetyStock: 8,
			SupplierId: mash,
		},
	}
	for i := range items {
		existing, err := models.FindItemBySKUOrBarcode(ctx, items[i].Sku)
		if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		if existing != nil {
			logger.WithField("sku", items[i].Sku).Info("item already seeded, skipping")
			continue
		}
		if _, err := models.CreateItem(ctx, &items[i]); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed for %s: %v\n", items[i].Sku, err)
			os.Exit(1)
		}
	}

	logger.Info("dev fixtures seeded")
}

func intPtrOrNil(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}
