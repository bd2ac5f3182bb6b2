package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
)

type Warehouse struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Location  string          `gorm:"size:191" json:"location"`
	Contact   string          `gorm:"size:100" json:"contact"`
	Status    WarehouseStatus `gorm:"size:20;not null;default:active" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"max=191"`
	Contact  string `json:"contact" validate:"max=100"`
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	if fields := utils.ValidateStruct(input); fields != nil {
		return nil, fmt.Errorf("invalid warehouse input: %v", fields)
	}
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&Warehouse{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("warehouse name already exists")
	}

	warehouse := Warehouse{
		Name:     input.Name,
		Location: input.Location,
		Contact:  input.Contact,
		Status:   WarehouseStatusActive,
	}
	if err := db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	db := config.GetDB()
	var warehouse Warehouse
	if err := db.WithContext(ctx).First(&warehouse, id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func AllWarehouses(ctx context.Context) ([]Warehouse, error) {
	db := config.GetDB()
	var warehouses []Warehouse
	if err := db.WithContext(ctx).Order("name ASC").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}
