// optimize-daemon supervises the optimization queue in a loop, claiming one
// job per tick. An exclusive flock on the pid file keeps it single-instance
// per host; a second copy exits 0 quietly so supervisors can run it from cron
// without alert noise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/workflow"
)

func main() {
	migrate := flag.Bool("migrate", false, "Run schema migrations on startup")
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
	daemon := workflow.NewDaemon(optimizer, logger, config.DaemonSleep(), config.RunDir())

	if err := daemon.Acquire(); err != nil {
		if errors.Is(err, workflow.ErrDaemonRunning) {
			logger.Info("another optimize-daemon is already running, exiting")
			return
		}
		config.LogError(logger, "cmd", "optimize-daemon", "acquire daemon lock", nil, err)
		os.Exit(1)
	}
	defer daemon.Release()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	daemon.Run(sigCtx)
}
