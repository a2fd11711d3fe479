package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"releasewatch/internal/config"
	"releasewatch/internal/daemon"
	"releasewatch/internal/logging"
	"releasewatch/internal/notifications"
	"releasewatch/internal/scheduler"
)

// Options configures daemon process runtime behavior.
type Options struct {
	ConfigPath  string
	LogLevel    string
	Development bool
}

// Run starts the releasewatch daemon and blocks until a shutdown signal.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("releasewatch-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg, opts.ConfigPath)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "releasewatch-*.log", Exclude: []string{logPath}},
	)
	components, err := Assemble(signalCtx, cfg, opts.ConfigPath, false, logger)
	if err != nil {
		logger.Error("assemble pipeline", logging.Error(err))
		return err
	}

	sched := scheduler.New(components.Pipeline, notifications.NewService(cfg), scheduler.Options{
		Interval:   time.Duration(cfg.Schedule.PollIntervalMinutes) * time.Minute,
		RunOnStart: cfg.Schedule.RunOnStart,
	}, logger)

	d, err := daemon.New(cfg, components.Ledger, sched, logger, logPath)
	if err != nil {
		components.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running instance and ledger access"),
			logging.String(logging.FieldImpact, "no announcements will be posted"),
		)
		return err
	}

	// Only the lock holder owns the pid file.
	pidPath := filepath.Join(cfg.Paths.DataDir, daemon.PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		logging.WarnWithContext(logger, "pid file not written", "pid_file_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data_dir permissions"),
			logging.String(logging.FieldImpact, "status reports the daemon without a pid"),
		)
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logShutdown(logger, d.Status(context.Background()))
	return nil
}

func logShutdown(logger *slog.Logger, status daemon.Status) {
	attrs := []any{
		logging.Int64("passes", status.Scheduler.Passes),
		logging.Int64("failures", status.Scheduler.Failures),
		logging.Int64("skipped", status.Scheduler.Skipped),
		logging.Int64("ledger_entries", status.LedgerEntries),
		logging.String("ledger_driver", status.LedgerDriver),
		logging.String("log_path", status.LogPath),
	}
	if last := status.Scheduler.Last; last != nil {
		attrs = append(attrs, logging.Int("last_announced", last.Summary.Announced))
	}
	logger.Info("releasewatch daemon shutting down", attrs...)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config, configPath string) {
	configured := 0
	for _, webhook := range []string{cfg.Channels.Demo, cfg.Channels.Coop, cfg.Channels.Multiplayer, cfg.Channels.Solo} {
		if webhook != "" {
			configured++
		}
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("config_path", configPath),
		logging.String("catalog_store_url", cfg.Catalog.StoreURL),
		logging.String("catalog_sort_order", cfg.Catalog.SortOrder),
		logging.String("catalog_filter_tag", cfg.Catalog.FilterTag),
		logging.Int("channels_configured", configured),
		logging.String("media_mode", cfg.Dispatch.MediaMode),
		logging.Int("item_delay_seconds", cfg.Dispatch.ItemDelaySeconds),
		logging.Int("poll_interval_minutes", cfg.Schedule.PollIntervalMinutes),
		logging.String("ledger_driver", cfg.Ledger.Driver),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
	)
}
