package models

import (
	"context"
	"fmt"
	"time"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
)

type Supplier struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:191;not null;index" json:"name"`
	Email       string    `gorm:"size:191" json:"email"`
	Phone       string    `gorm:"size:50" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	LeadTimeDay int       `gorm:"default:0" json:"lead_time_day"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name        string `json:"name" validate:"required,max=191"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=50"`
	Address     string `json:"address"`
	LeadTimeDay int    `json:"lead_time_day" validate:"gte=0"`
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if fields := utils.ValidateStruct(input); fields != nil {
		return nil, fmt.Errorf("invalid supplier input: %v", fields)
	}
	db := config.GetDB()
	supplier := Supplier{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		LeadTimeDay: input.LeadTimeDay,
	}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	db := config.GetDB()
	var supplier Supplier
	if err := db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func AllSuppliers(ctx context.Context) ([]Supplier, error) {
	db := config.GetDB()
	var suppliers []Supplier
	if err := db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}
