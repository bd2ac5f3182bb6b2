// optimize-worker runs one pass of the optimization queue and exits. Cron
// installs invoke it without arguments to pick up the oldest pending job;
// -job runs a specific job, which is how synchronous launches shell out.
//
// Job failure is recorded on the job row, not the exit code: only bootstrap
// problems (no database, bad flags) exit non-zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/workflow"
)

func main() {
	jobId := flag.Int("job", 0, "Optional: run this job id instead of claiming the oldest pending job")
	create := flag.Bool("create", false, "Create a new optimization job (runs it too when OPT_SYNC_RUN is set)")
	horizonDays := flag.Int("horizon-days", 30, "Planning horizon for -create")
	serviceLevel := flag.Float64("service-level", 0.95, "Target service level for -create (0..1)")
	migrate := flag.Bool("migrate", false, "Run schema migrations before processing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if *migrate {
		models.MigrateTable()
	}

	logger := config.NewWorkerLogger(os.Getenv("OPT_LOG_FILE"))
	optimizer := workflow.NewOptimizer(db, logger)
	ctx := utils.SetCorrelationIdInContext(context.Background(), uuid.NewString())

	if *create {
		job, err := optimizer.LaunchJob(ctx, &models.NewOptimizationJob{
			HorizonDays:  *horizonDays,
			ServiceLevel: *serviceLevel,
		})
		if err != nil {
			config.LogError(logger, "cmd", "optimize-worker", "launch job", nil, err)
			os.Exit(1)
		}
		logger.WithField("job_id", job.ID).WithField("status", job.Status).Info("optimization job created")
		return
	}

	if *jobId > 0 {
		claimed, err := optimizer.RunJob(ctx, *jobId)
		if err != nil {
			config.LogError(logger, "cmd", "optimize-worker", "run job", map[string]any{"job_id": *jobId}, err)
			os.Exit(1)
		}
		if !claimed {
			logger.WithField("job_id", *jobId).Info("nothing to do")
		}
		return
	}

	claimed, err := optimizer.RunNext(ctx)
	if err != nil {
		config.LogError(logger, "cmd", "optimize-worker", "claim next job", nil, err)
		os.Exit(1)
	}
	if !claimed {
		logger.Info("no pending optimization jobs")
	}
}
