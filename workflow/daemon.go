package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/utils"
	"golang.org/x/sys/unix"
)

// ErrDaemonRunning reports that another daemon instance holds the lock.
var ErrDaemonRunning = fmt.Errorf("optimization daemon already running")

// Daemon supervises the optimizer loop: one claim attempt per tick, graceful
// stop on context cancellation between iterations. A single instance per host
// is enforced with an exclusive flock on the pid file, held for the daemon's
// lifetime so a killed process can never leave a live-looking lock behind.
type Daemon struct {
	Optimizer *Optimizer
	Logger    *logrus.Logger
	Sleep     time.Duration
	PidFile   string

	lockFile *os.File
}

func NewDaemon(o *Optimizer, logger *logrus.Logger, sleep time.Duration, runDir string) *Daemon {
	return &Daemon{
		Optimizer: o,
		Logger:    logger,
		Sleep:     sleep,
		PidFile:   filepath.Join(runDir, "optimize_daemon.pid"),
	}
}

// Acquire takes the single-instance lock and writes our pid. Returns
// ErrDaemonRunning when another live daemon holds it.
func (d *Daemon) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(d.PidFile), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(d.PidFile, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if pid := readPid(f); pid > 0 {
			d.Logger.WithFields(logrus.Fields{"field": "Daemon", "pid": pid}).
				Info("daemon lock held by running process")
		}
		f.Close()
		return ErrDaemonRunning
	}
	// The flock is authoritative; the pid content is diagnostic only. A stale
	// pid from a crashed instance is overwritten here, never trusted.
	if err := f.Truncate(0); err != nil {
		f.Close()
		return err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		f.Close()
		return err
	}
	d.lockFile = f
	return nil
}

// Release drops the lock and removes the pid file. Safe to call when Acquire
// failed.
func (d *Daemon) Release() {
	if d.lockFile == nil {
		return
	}
	_ = unix.Flock(int(d.lockFile.Fd()), unix.LOCK_UN)
	_ = d.lockFile.Close()
	_ = os.Remove(d.PidFile)
	d.lockFile = nil
}

// Run loops until the context is cancelled. Errors from a tick are logged and
// the loop continues; job failures never surface here at all.
func (d *Daemon) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	d.Logger.WithFields(logrus.Fields{
		"field":     "Daemon",
		"pid":       os.Getpid(),
		"worker_id": d.Optimizer.WorkerID,
		"sleep":     d.Sleep.String(),
	}).Info("optimization daemon started")

	for {
		select {
		case <-ctx.Done():
			d.Logger.WithFields(logrus.Fields{"field": "Daemon"}).Info("optimization daemon stopping")
			return
		default:
		}
		// A fresh correlation id per claim attempt ties one job's log lines
		// together across the optimizer and the solver output capture.
		claimed, err := d.Optimizer.RunNext(utils.SetCorrelationIdInContext(ctx, uuid.NewString()))
		if err != nil {
			d.Logger.WithFields(logrus.Fields{"field": "Daemon"}).
				Errorf("claim attempt failed: %v", err)
		}
		if claimed {
			// Drain the queue before sleeping again.
			continue
		}
		select {
		case <-ctx.Done():
			d.Logger.WithFields(logrus.Fields{"field": "Daemon"}).Info("optimization daemon stopping")
			return
		case <-time.After(d.Sleep):
		}
	}
}

func readPid(f *os.File) int {
	buf := make([]byte, 32)
	n, err := f.ReadAt(buf, 0)
	if n == 0 && err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}
