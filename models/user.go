package models

import "time"

// User is kept minimal: authentication and RBAC live outside this core, but
// movements and jobs attribute their actor by user id and reports join the
// name back in.
type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:191;not null" json:"name"`
	Email        string    `gorm:"size:191;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Batch optionally groups movements of one item (lot/expiry tracking).
type Batch struct {
	ID          int        `gorm:"primary_key" json:"id"`
	ItemId      int        `gorm:"index;not null" json:"item_id"`
	BatchNumber string     `gorm:"size:100;not null" json:"batch_number"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
