package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"strobe/internal/logging"
)

// Scheduler runs periodic cleanup passes while the daemon is up.
type Scheduler struct {
	janitor  *Janitor
	policy   func() Policy
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. policy is called before every pass so
// runtime setting changes take effect without a restart.
func NewScheduler(janitor *Janitor, policy func() Policy, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		janitor:  janitor,
		policy:   policy,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "retention"),
	}
}

// Run blocks until ctx is cancelled, cleaning up on every tick. The first
// pass runs shortly after start so a long-stopped booth catches up.
func (s *Scheduler) Run(ctx context.Context) {
	startup := time.NewTimer(10 * time.Second)
	defer startup.Stop()

	select {
	case <-ctx.Done():
		return
	case <-startup.C:
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.janitor.Cleanup(ctx, s.policy())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrCleanupBusy) {
			s.logger.Debug("skipping scheduled cleanup, pass already running")
			return
		}
		logging.ErrorWithContext(s.logger, "scheduled cleanup failed",
			"cleanup_failed",
			logging.String(logging.FieldErrorHint, "check library directory permissions and disk health"),
			logging.Error(err))
		return
	}
	if report.FilesRemoved > 0 {
		s.logger.Info("scheduled cleanup removed files",
			logging.Int("pairs_removed", report.PairsRemoved),
			logging.Int64("bytes_freed", report.BytesFreed))
	}
}
