package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"strobe/internal/api"
	"strobe/internal/booth"
	"strobe/internal/config"
	"strobe/internal/logging"
	"strobe/internal/notifications"
	"strobe/internal/pairstore"
	"strobe/internal/settings"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the strobe daemon runtime loop and blocks until a signal or
// the parent context stops it.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("strobe-%s.log", runID))

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

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update strobe.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "strobe-*.log", Exclude: []string{logPath}},
	)

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "strobed.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another strobe daemon instance is already running")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
		}
	}()

	pidPath := filepath.Join(cfg.Paths.LogDir, "strobed.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	settingsStore, err := settings.Open(cfg)
	if err != nil {
		logger.Error("open settings store", logging.Error(err))
		return err
	}
	defer settingsStore.Close()

	store := pairstore.New(cfg.Paths.LibraryDir, logger)
	notifier := notifications.NewService(cfg)
	b := booth.New(cfg, store, settingsStore, notifier, nil, logger)

	server := api.NewServer(b, logger)
	apiErr := make(chan error, 1)
	go func() {
		apiErr <- server.Run(signalCtx, cfg.Paths.APIBind)
	}()

	logger.Info("strobe daemon started",
		logging.String("library", cfg.Paths.LibraryDir),
		logging.String("api_bind", cfg.Paths.APIBind),
	)

	runErr := make(chan error, 1)
	go func() {
		runErr <- b.Run(signalCtx)
	}()

	select {
	case err := <-apiErr:
		if err != nil {
			logging.ErrorWithContext(logger, "api server failed", "api_failed",
				logging.String(logging.FieldErrorHint, "check that the configured bind address is free"),
				logging.Error(err))
			cancel()
			<-runErr
			return err
		}
		<-runErr
	case err := <-runErr:
		<-apiErr
		if err != nil {
			return err
		}
	}

	logger.Info("strobe daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "strobe.log")
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
