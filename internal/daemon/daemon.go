package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"releasewatch/internal/config"
	"releasewatch/internal/ledger"
	"releasewatch/internal/logging"
	"releasewatch/internal/scheduler"
)

// Files kept in the data directory while a daemon runs.
const (
	LockFileName = "releasewatchd.lock"
	PIDFileName  = "releasewatchd.pid"
)

// Daemon owns the scheduler lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	ledger    ledger.Ledger
	scheduler *scheduler.Scheduler
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Scheduler     scheduler.Status
	LedgerDriver  string
	LedgerEntries int64
	LockFilePath  string
	LogPath       string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store ledger.Ledger, sched *scheduler.Scheduler, logger *slog.Logger, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || sched == nil {
		return nil, errors.New("daemon requires config, ledger, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, LockFileName)
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		ledger:    store,
		scheduler: sched,
		logPath:   logPath,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and starts the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another releasewatch daemon instance is already running")
	}

	if err := d.scheduler.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("releasewatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the scheduler and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("releasewatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ledger != nil {
		return d.ledger.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Scheduler:    d.scheduler.Status(),
		LedgerDriver: d.cfg.Ledger.Driver,
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
	}
	if count, err := d.ledger.Count(ctx); err == nil {
		status.LedgerEntries = count
	} else {
		logging.WarnWithContext(d.logger, "ledger count unavailable", "ledger_count_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ledger storage"),
			logging.String(logging.FieldImpact, "status omits the announced item count"),
		)
	}
	return status
}

// ProcessState describes a daemon observed from outside its process.
type ProcessState struct {
	Running  bool
	PID      int
	LockPath string
}

// Probe reports whether another process holds the daemon lock for cfg.
func Probe(cfg *config.Config) (ProcessState, error) {
	lockPath := filepath.Join(cfg.Paths.DataDir, LockFileName)
	state := ProcessState{LockPath: lockPath}

	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		return state, nil
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return state, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return state, nil
	}

	state.Running = true
	if data, err := os.ReadFile(filepath.Join(cfg.Paths.DataDir, PIDFileName)); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			state.PID = pid
		}
	}
	return state, nil
}
