package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OptimizationJob rows drive the background optimization pipeline. Status
// transitions are owned exclusively by the claim/finalize functions in this
// file; the executor never writes status directly.
type OptimizationJob struct {
	ID             int        `gorm:"primary_key" json:"id"`
	UserId         *int       `gorm:"index" json:"user_id"`
	HorizonDays    int        `gorm:"not null" json:"horizon_days"`
	ServiceLevel   float64    `gorm:"type:decimal(5,2);not null" json:"service_level"`
	Status         JobStatus  `gorm:"size:20;not null;default:pending;index" json:"status"`
	ItemsTotal     int        `gorm:"not null;default:0" json:"items_total"`
	ItemsProcessed int        `gorm:"not null;default:0" json:"items_processed"`
	Results        *string    `gorm:"type:json" json:"results"`
	Notes          *string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

type NewOptimizationJob struct {
	UserId       *int    `json:"user_id"`
	HorizonDays  int     `json:"horizon_days" validate:"required,gte=1"`
	ServiceLevel float64 `json:"service_level" validate:"gt=0,lte=1"`
}

// CreateJob inserts a pending job, recording the current active-item count as
// items_total. Driving the job to completion is the worker's business.
func CreateJob(ctx context.Context, input *NewOptimizationJob) (*OptimizationJob, error) {
	if fields := utils.ValidateStruct(input); fields != nil {
		return nil, fmt.Errorf("invalid optimization job input: %v", fields)
	}
	db := config.GetDB()
	total, err := ActiveItemCount(ctx)
	if err != nil {
		return nil, err
	}
	job := OptimizationJob{
		UserId:       input.UserId,
		HorizonDays:  input.HorizonDays,
		ServiceLevel: input.ServiceLevel,
		Status:       JobStatusPending,
		ItemsTotal:   int(total),
	}
	if err := db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimNextPending atomically claims the oldest pending job. It returns
// (nil, nil) both when there is no work and when another worker won the race:
// neither is an error. Jobs stuck in running longer than staleAfter are
// returned to pending first, so a crashed executor cannot strand work forever.
//
// The conditional update guarded by `status = 'pending'` is the correctness
// mechanism against double-processing; the row lock only narrows the window.
func ClaimNextPending(ctx context.Context, staleAfter time.Duration) (*OptimizationJob, error) {
	db := config.GetDB()
	var claimed *OptimizationJob
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if staleAfter > 0 {
			staleBefore := time.Now().UTC().Add(-staleAfter)
			res := tx.Model(&OptimizationJob{}).
				Where("status = ? AND started_at IS NOT NULL AND started_at <= ?", JobStatusRunning, staleBefore).
				Updates(map[string]any{"status": JobStatusPending, "started_at": nil})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				config.GetLogger().WithField("count", res.RowsAffected).
					Warn("requeued stale running optimization jobs")
			}
		}

		var job OptimizationJob
		q := tx.Where("status = ?", JobStatusPending).Order("created_at ASC, id ASC")
		if tx.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Limit(1).Find(&job).Error; err != nil {
			return err
		}
		if job.ID == 0 {
			return nil // no pending work
		}

		now := time.Now().UTC()
		res := tx.Model(&OptimizationJob{}).
			Where("id = ? AND status = ?", job.ID, JobStatusPending).
			Updates(map[string]any{"status": JobStatusRunning, "started_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another process claimed it between select and update.
			config.GetLogger().WithField("job_id", job.ID).Info("lost claim race")
			return nil
		}
		job.Status = JobStatusRunning
		job.StartedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ClaimJob claims a specific job by id, used for synchronous launches where
// the id is already known. Returns false when the job is missing, already
// running, or terminal; callers treat that as a silent no-op.
func ClaimJob(ctx context.Context, jobId int) (bool, error) {
	db := config.GetDB()
	now := time.Now().UTC()
	res := db.WithContext(ctx).Model(&OptimizationJob{}).
		Where("id = ? AND status = ?", jobId, JobStatusPending).
		Updates(map[string]any{"status": JobStatusRunning, "started_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkJobComplete finalizes a running job, storing the authoritative
// processed count and a JSON snapshot of the normalized results.
func MarkJobComplete(ctx context.Context, jobId int, itemsProcessed int, resultsJSON string) error {
	db := config.GetDB()
	now := time.Now().UTC()
	res := db.WithContext(ctx).Model(&OptimizationJob{}).
		Where("id = ? AND status = ?", jobId, JobStatusRunning).
		Updates(map[string]any{
			"status":          JobStatusComplete,
			"items_processed": itemsProcessed,
			"results":         resultsJSON,
			"completed_at":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %d is not running, refusing to complete", jobId)
	}
	return nil
}

// MarkJobFailed records a terminal failure with a truncated diagnostic. The
// message lands in the results JSON so getJob callers can surface it.
func MarkJobFailed(ctx context.Context, jobId int, message string) error {
	db := config.GetDB()
	payload, err := json.Marshal(map[string]string{"error": utils.Truncate(message, 2000)})
	if err != nil {
		payload = []byte(`{"error":"unknown failure"}`)
	}
	now := time.Now().UTC()
	res := db.WithContext(ctx).Model(&OptimizationJob{}).
		Where("id = ? AND status = ?", jobId, JobStatusRunning).
		Updates(map[string]any{
			"status":       JobStatusFailed,
			"results":      string(payload),
			"completed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	return nil
}

// JobRow is the read shape for job queries: the job plus the initiator name.
type JobRow struct {
	OptimizationJob
	UserName *string `json:"user_name"`
}

func GetJob(ctx context.Context, id int) (*JobRow, error) {
	db := config.GetDB()
	var rows []JobRow
	err := db.WithContext(ctx).Model(&OptimizationJob{}).
		Select("optimization_jobs.*, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = optimization_jobs.user_id").
		Where("optimization_jobs.id = ?", id).
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

func GetAllJobs(ctx context.Context) ([]JobRow, error) {
	db := config.GetDB()
	var rows []JobRow
	err := db.WithContext(ctx).Model(&OptimizationJob{}).
		Select("optimization_jobs.*, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = optimization_jobs.user_id").
		Order("optimization_jobs.created_at DESC, optimization_jobs.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func GetLatestJobID(ctx context.Context) (*int, error) {
	db := config.GetDB()
	var job OptimizationJob
	err := db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(1).Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job.ID, nil
}
