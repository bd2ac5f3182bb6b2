package models

import (
	"log"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Supplier{},
		&Warehouse{},
		&Item{}, &Batch{},
		&StockMovement{},
		&OptimizationJob{}, &OptimizationResult{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
