package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gerunddev/dailyinbox/internal/config"
	"github.com/gerunddev/dailyinbox/internal/daemon"
	"github.com/gerunddev/dailyinbox/internal/daily"
	"github.com/gerunddev/dailyinbox/internal/logger"
	"github.com/gerunddev/dailyinbox/internal/note"
	"github.com/gerunddev/dailyinbox/internal/state"
	"github.com/gerunddev/dailyinbox/internal/watcher"
)

// Run runs the watcher in the foreground until SIGINT or SIGTERM. This is
// the process started by `start` and by the installed service.
func Run(args []string) {
	cfg, _ := loadConfig("run", args, true)

	if err := runWatcher(cfg); err != nil {
		fail("Watcher stopped", err)
	}
}

func runWatcher(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	log, cleanup, err := logger.NewFileLogger(cfg.LogFile, level, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer cleanup()

	log.ConfigLoaded(cfg.VaultDir, cfg.DailyDir, cfg.Debounce)

	if running, pid, _ := daemon.IsRunning(); running && pid != os.Getpid() {
		return fmt.Errorf("daemon already running with PID %d", pid)
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	if err := daemon.WritePID(); err != nil {
		return err
	}
	defer func() {
		if err := daemon.RemovePID(); err != nil {
			log.Warn("failed to remove PID file on shutdown", "error", err)
		}
	}()

	editor := daily.NewEditor(cfg.DailyDir, cfg.VaultDir, note.LinkStyle(cfg.LinkStyle))
	w, err := watcher.New(watcher.Options{
		VaultDir:        cfg.VaultDir,
		DailyDir:        cfg.DailyDir,
		IncludeDailyDir: cfg.IncludeDailyDir,
		Debounce:        cfg.Debounce,
		MaxAttempts:     cfg.MaxAttempts,
		Workers:         cfg.Workers,
		Logger:          log,
		Journal:         st,
	}, editor)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("daemon started", "pid", os.Getpid())

	if err := w.Run(ctx); err != nil {
		log.Error("watcher failed", "error", err)
		return err
	}

	log.Info("daemon shutdown complete")
	return nil
}
