package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"gorm.io/gorm/clause"
)

// OptimizationResult stores one solver recommendation per (job, item). The
// composite unique index makes re-running persistence idempotent: the same
// solver output saved twice overwrites rather than duplicating.
type OptimizationResult struct {
	ID           int              `gorm:"primary_key" json:"id"`
	JobId        int              `gorm:"not null;uniqueIndex:uq_result_job_item" json:"job_id"`
	ItemId       int              `gorm:"not null;uniqueIndex:uq_result_job_item" json:"item_id"`
	Eoq          *decimal.Decimal `gorm:"type:decimal(13,2)" json:"eoq"`
	ReorderPoint *int             `json:"reorder_point"`
	SafetyStock  *int             `json:"safety_stock"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// ResultRow is the canonical normalized shape of a single solver
// recommendation. Any of the three metrics may be absent.
type ResultRow struct {
	ItemId       int              `json:"item_id"`
	Eoq          *decimal.Decimal `json:"eoq"`
	ReorderPoint *int             `json:"reorder_point"`
	SafetyStock  *int             `json:"safety_stock"`
}

// SaveResult upserts one recommendation. Rows with a non-positive item id are
// dropped with a warning rather than failing the whole job; the returned bool
// reports whether the row was persisted.
func SaveResult(ctx context.Context, jobId int, row ResultRow) (bool, error) {
	if row.ItemId <= 0 {
		config.GetLogger().WithField("job_id", jobId).WithField("item_id", row.ItemId).
			Warn("skipping optimization result with invalid item id")
		return false, nil
	}
	db := config.GetDB()
	result := OptimizationResult{
		JobId:        jobId,
		ItemId:       row.ItemId,
		Eoq:          row.Eoq,
		ReorderPoint: row.ReorderPoint,
		SafetyStock:  row.SafetyStock,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"eoq", "reorder_point", "safety_stock", "updated_at"}),
	}).Create(&result).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountForJob is the authoritative processed count for a finished job.
func CountForJob(ctx context.Context, jobId int) (int, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&OptimizationResult{}).
		Where("job_id = ?", jobId).Count(&count).Error
	return int(count), err
}

// ResultDetailRow joins a recommendation with its item for display.
type ResultDetailRow struct {
	OptimizationResult
	ItemName string `json:"item_name"`
	Sku      string `json:"sku"`
}

func ResultsForJob(ctx context.Context, jobId int) ([]ResultDetailRow, error) {
	db := config.GetDB()
	var rows []ResultDetailRow
	err := db.WithContext(ctx).Model(&OptimizationResult{}).
		Select("optimization_results.*, i.name AS item_name, i.sku AS sku").
		Joins("JOIN items i ON i.id = optimization_results.item_id").
		Where("optimization_results.job_id = ?", jobId).
		Order("i.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestForItem returns the item's recommendation from the most recent job
// that produced one, or nil when the item has never been optimized.
func LatestForItem(ctx context.Context, itemId int) (*OptimizationResult, error) {
	db := config.GetDB()
	var rows []OptimizationResult
	err := db.WithContext(ctx).
		Where("item_id = ?", itemId).
		Order("job_id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// LatestJobResults returns the detail rows of the most recent completed job,
// or an empty slice when no job has completed yet.
func LatestJobResults(ctx context.Context) ([]ResultDetailRow, error) {
	db := config.GetDB()
	var job OptimizationJob
	err := db.WithContext(ctx).
		Where("status = ?", JobStatusComplete).
		Order("completed_at DESC, id DESC").
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return []ResultDetailRow{}, nil
	}
	return ResultsForJob(ctx, job.ID)
}
