package workflow

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
	"gorm.io/gorm"
)

// snapshotHeader is the input contract with the solver binary. Column order
// is part of the contract; the solver reads positionally.
var snapshotHeader = []string{"id", "avg_daily_demand", "lead_time_days", "unit_cost", "safety_stock", "order_cost"}

const defaultOrderCost = "50"

// Optimizer drives one optimization job end to end: snapshot active items to
// CSV, run the solver subprocess, normalize and persist its output, finalize
// the job row. A job failure is an outcome, not an error: process() records it
// on the job and the optimizer keeps running.
type Optimizer struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	WorkerID string

	SolverBin     string
	SolverTimeout time.Duration
	RunDir        string
	Planning      models.ItemPlanningColumns
}

func NewOptimizer(db *gorm.DB, logger *logrus.Logger) *Optimizer {
	o := &Optimizer{
		DB:            db,
		Logger:        logger,
		WorkerID:      uuid.NewString(),
		SolverBin:     config.SolverBin(),
		SolverTimeout: config.SolverTimeout(),
		RunDir:        config.RunDir(),
	}
	cols, err := models.ResolveItemPlanningColumns()
	if err != nil {
		// Propagation is optional; run without it rather than refusing to start.
		config.LogError(logger, "workflow", "NewOptimizer", "resolve item planning columns", nil, err)
	} else {
		o.Planning = cols
	}
	return o
}

// RunNext claims and processes the oldest pending job. The bool reports
// whether a job was claimed; false with a nil error means the queue is idle.
func (o *Optimizer) RunNext(ctx context.Context) (bool, error) {
	job, err := models.ClaimNextPending(ctx, config.JobStaleAfter())
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	o.process(ctx, job)
	return true, nil
}

// LaunchJob creates a job and, when OPT_SYNC_RUN is set, drives it to its
// terminal state in-process before returning. With sync off the caller gets
// the pending job back immediately and the daemon or cron worker picks it up.
func (o *Optimizer) LaunchJob(ctx context.Context, input *models.NewOptimizationJob) (*models.OptimizationJob, error) {
	job, err := models.CreateJob(ctx, input)
	if err != nil {
		return nil, err
	}
	if !config.SyncRunOnCreate() {
		return job, nil
	}
	if _, err := o.RunJob(ctx, job.ID); err != nil {
		return job, err
	}
	final := models.OptimizationJob{}
	if err := o.DB.WithContext(ctx).First(&final, job.ID).Error; err != nil {
		return job, err
	}
	return &final, nil
}

// RunJob claims a specific job by id, for synchronous launches. A job that is
// missing or not pending is a quiet no-op.
func (o *Optimizer) RunJob(ctx context.Context, jobId int) (bool, error) {
	ok, err := models.ClaimJob(ctx, jobId)
	if err != nil {
		return false, err
	}
	if !ok {
		o.Logger.WithFields(logrus.Fields{"field": "Optimizer", "job_id": jobId}).
			Info("job not claimable, skipping")
		return false, nil
	}
	job := models.OptimizationJob{}
	if err := o.DB.WithContext(ctx).First(&job, jobId).Error; err != nil {
		return false, err
	}
	o.process(ctx, &job)
	return true, nil
}

// process owns the running job and always drives it to complete or failed.
func (o *Optimizer) process(ctx context.Context, job *models.OptimizationJob) {
	logger := o.Logger.WithFields(logrus.Fields{
		"field":          "Optimizer",
		"job_id":         job.ID,
		"worker_id":      o.WorkerID,
		"correlation_id": utils.CorrelationIdFromContextOrNew(ctx),
	})
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic while processing job: %v", r)
			o.fail(ctx, job.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()
	logger.Info("processing optimization job")

	inPath, count, err := o.writeSnapshot(ctx, job.ID)
	if inPath != "" {
		defer os.Remove(inPath)
	}
	if err != nil {
		o.fail(ctx, job.ID, fmt.Sprintf("snapshot failed: %v", err))
		return
	}
	if count == 0 {
		o.fail(ctx, job.ID, "no items to optimize")
		return
	}

	outPath := filepath.Join(o.RunDir, fmt.Sprintf("opt_output_%d_%s.json", job.ID, o.WorkerID))
	defer os.Remove(outPath)

	raw, err := o.runSolver(ctx, logger, inPath, outPath)
	if err != nil {
		o.fail(ctx, job.ID, err.Error())
		return
	}

	rows, err := NormalizeResultsPayload(raw)
	if err != nil {
		o.fail(ctx, job.ID, fmt.Sprintf("invalid solver output: %v", err))
		return
	}
	if len(rows) == 0 {
		o.fail(ctx, job.ID, "solver returned no usable results")
		return
	}

	for _, row := range rows {
		if _, err := models.SaveResult(ctx, job.ID, row); err != nil {
			o.fail(ctx, job.ID, fmt.Sprintf("persisting result for item %d failed: %v", row.ItemId, err))
			return
		}
	}

	// The persisted count is authoritative, not len(rows): invalid rows are
	// skipped inside SaveResult.
	processed, err := models.CountForJob(ctx, job.ID)
	if err != nil {
		o.fail(ctx, job.ID, fmt.Sprintf("counting persisted results failed: %v", err))
		return
	}

	for _, row := range rows {
		if err := models.ApplyPlanningToItem(ctx, o.Planning, row); err != nil {
			logger.WithField("item_id", row.ItemId).
				Warnf("could not propagate planning fields to item: %v", err)
		}
	}

	snapshot, err := json.Marshal(rows)
	if err != nil {
		o.fail(ctx, job.ID, fmt.Sprintf("encoding results snapshot failed: %v", err))
		return
	}
	if err := models.MarkJobComplete(ctx, job.ID, processed, string(snapshot)); err != nil {
		config.LogError(o.Logger, "workflow", "process", "mark job complete", map[string]any{"job_id": job.ID}, err)
		return
	}
	logger.WithField("items_processed", processed).Info("optimization job complete")
}

type snapshotRow struct {
	Id             int
	AvgDailyDemand int
	LeadTimeDays   int
	UnitCost       decimal.Decimal
	SafetyStock    int
	OrderCost      *decimal.Decimal
}

// writeSnapshot dumps every active item's planning inputs to a CSV in RunDir
// and returns the path plus the row count.
func (o *Optimizer) writeSnapshot(ctx context.Context, jobId int) (string, int, error) {
	var items []snapshotRow
	err := o.DB.WithContext(ctx).Model(&models.Item{}).
		Select("id, avg_daily_demand, lead_time_days, unit_cost, safety_stock, order_cost").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(o.RunDir, 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.CreateTemp(o.RunDir, fmt.Sprintf("opt_input_%d_*.csv", jobId))
	if err != nil {
		return "", 0, err
	}
	path := f.Name()

	w := csv.NewWriter(f)
	if err := w.Write(snapshotHeader); err != nil {
		f.Close()
		return path, 0, err
	}
	for _, it := range items {
		orderCost := defaultOrderCost
		if it.OrderCost != nil {
			orderCost = it.OrderCost.String()
		}
		record := []string{
			strconv.Itoa(it.Id),
			strconv.Itoa(it.AvgDailyDemand),
			strconv.Itoa(it.LeadTimeDays),
			it.UnitCost.String(),
			strconv.Itoa(it.SafetyStock),
			orderCost,
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return path, 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return path, 0, err
	}
	if err := f.Close(); err != nil {
		return path, 0, err
	}
	return path, len(items), nil
}

// runSolver invokes the solver binary with the input and output paths as
// plain argv (no shell), bounded by SolverTimeout, and returns the raw bytes
// of the output file.
func (o *Optimizer) runSolver(ctx context.Context, logger *logrus.Entry, inPath, outPath string) ([]byte, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if o.SolverTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.SolverTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, o.SolverBin, inPath, outPath)
	output, runErr := cmd.CombinedOutput()
	if len(output) > 0 {
		logger.WithField("solver_output", utils.Truncate(string(output), 2000)).Info("solver output captured")
	}
	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("solver timed out after %s", o.SolverTimeout)
		}
		return nil, fmt.Errorf("solver failed: %v: %s", runErr, utils.Truncate(string(output), 2000))
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("solver produced no output file: %v", err)
	}
	return raw, nil
}

// fail records the diagnostic on the job row. Failure to record is logged and
// swallowed so the worker loop survives.
func (o *Optimizer) fail(ctx context.Context, jobId int, message string) {
	o.Logger.WithFields(logrus.Fields{"field": "Optimizer", "job_id": jobId}).
		Error("optimization job failed: " + message)
	if err := models.MarkJobFailed(ctx, jobId, message); err != nil {
		config.LogError(o.Logger, "workflow", "fail", "mark job failed", map[string]any{"job_id": jobId}, err)
	}
}
