package config

import (
	"os"
	"strings"
	"time"
)

// SyncRunOnCreate controls whether creating an optimization job also drives
// it to completion in the calling process, instead of leaving it pending for
// the cron/daemon worker.
//
// Set via env:
// - OPT_SYNC_RUN=true
func SyncRunOnCreate() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OPT_SYNC_RUN")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SolverBin is the external numeric solver executable. It is invoked as
// `solver <input_csv> <output_json>` with discrete arguments, never through a
// shell.
func SolverBin() string {
	v := strings.TrimSpace(os.Getenv("OPT_SOLVER_BIN"))
	if v == "" {
		return "solver"
	}
	return v
}

// SolverTimeout bounds a single solver run. Without a deadline a hung solver
// pins its job in running until the staleness reclaim kicks in.
func SolverTimeout() time.Duration {
	return time.Duration(IntFromEnv("OPT_SOLVER_TIMEOUT_SECONDS", 600)) * time.Second
}

// JobStaleAfter is how long a job may sit in running before a claimer treats
// it as abandoned (crashed executor) and returns it to pending.
func JobStaleAfter() time.Duration {
	return time.Duration(IntFromEnv("OPT_JOB_STALE_MINUTES", 30)) * time.Minute
}

// DaemonSleep is the pause between daemon iterations.
func DaemonSleep() time.Duration {
	return time.Duration(IntFromEnv("OPT_DAEMON_SLEEP", 8)) * time.Second
}

// RunDir holds the daemon pid/lock files and the worker log.
func RunDir() string {
	v := strings.TrimSpace(os.Getenv("OPT_RUN_DIR"))
	if v == "" {
		return "storage"
	}
	return v
}
