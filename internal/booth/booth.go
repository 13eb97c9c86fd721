package booth

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"strobe/internal/capture"
	"strobe/internal/config"
	"strobe/internal/logging"
	"strobe/internal/notifications"
	"strobe/internal/pairstore"
	"strobe/internal/prefetch"
	"strobe/internal/retention"
	"strobe/internal/settings"
	"strobe/internal/slideshow"
)

// CameraTrigger fires the external camera when a countdown completes.
type CameraTrigger func(sessionID, theme string)

// Booth owns the long-lived booth components and routes events between the
// external capture/stylization collaborators, the pair store, the capture
// machine, and the slideshow.
type Booth struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *pairstore.Store
	settings  *settings.Store
	notifier  notifications.Service
	machine   *capture.Machine
	slideshow *slideshow.Controller
	janitor   *retention.Janitor
	scheduler *retention.Scheduler
}

// New wires the booth. settingsStore and notifier may be nil; camera may be
// nil when no camera collaborator is attached.
func New(cfg *config.Config, store *pairstore.Store, settingsStore *settings.Store, notifier notifications.Service, camera CameraTrigger, logger *slog.Logger) *Booth {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	b := &Booth{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "booth"),
		store:    store,
		settings: settingsStore,
		notifier: notifier,
	}

	var recorder capture.SessionRecorder
	var marker retention.CleanupMarker
	if settingsStore != nil {
		recorder = settingsStore
		marker = cleanupMarker{store: settingsStore}
	}

	b.machine = capture.New(b.captureSettings, func(sessionID, theme string) {
		if camera != nil {
			camera(sessionID, theme)
		}
	}, recorder, logger)

	cache := prefetch.New(cfg.Slideshow.PrefetchWindow, logger)
	var persister slideshow.DurationPersister
	if settingsStore != nil {
		persister = settingsStore
	}
	b.slideshow = slideshow.New(
		store,
		cache,
		b.displaySeconds(),
		time.Duration(cfg.Slideshow.RescanSeconds)*time.Second,
		persister,
		settings.KeyDisplaySeconds,
		logger,
	)

	b.janitor = retention.NewJanitor(store, marker, logger)
	b.scheduler = retention.NewScheduler(
		b.janitor,
		b.retentionPolicy,
		time.Duration(cfg.Retention.CleanupIntervalMinutes)*time.Minute,
		logger,
	)

	store.OnPairComplete(b.pairCompleted)
	return b
}

// Run starts the background lanes (automatic cleanup, directory watcher)
// and blocks until ctx is cancelled.
func (b *Booth) Run(ctx context.Context) error {
	if b.automaticCleanup() {
		go b.scheduler.Run(ctx)
	}

	watcher, err := pairstore.NewWatcher(b.store.Dir(), b.logger, func(string) {
		b.slideshow.NudgeRescan()
	})
	if err != nil {
		// The periodic rescan still finds new pairs, just slower.
		b.logger.Warn("library watcher unavailable", logging.Error(err))
	} else {
		go watcher.Run(ctx)
	}

	<-ctx.Done()
	b.slideshow.Stop()
	return nil
}

// Capture returns the capture machine shared by all surfaces.
func (b *Booth) Capture() *capture.Machine { return b.machine }

// Slideshow returns the slideshow controller.
func (b *Booth) Slideshow() *slideshow.Controller { return b.slideshow }

// Store returns the pair store.
func (b *Booth) Store() *pairstore.Store { return b.store }

// RequestCapture handles an operator capture request: the slideshow stops
// so it never overlaps a live session, then a session is armed.
func (b *Booth) RequestCapture(theme string) (string, error) {
	b.slideshow.Stop()
	return b.machine.Trigger(theme)
}

// SelectTheme handles a theme selection: the slideshow stops and the choice
// pre-arms the next session.
func (b *Booth) SelectTheme(theme string) {
	b.slideshow.Stop()
	b.machine.SelectTheme(theme)
}

// CaptureCompleted persists the original half delivered by the camera
// collaborator and moves the session into stylization.
func (b *Booth) CaptureCompleted(timestamp string, data []byte) error {
	if _, err := b.store.SaveOriginal(timestamp, data); err != nil {
		b.machine.Fail(capture.CategoryCamera, err.Error())
		return err
	}
	b.machine.BeginProcessing()
	return nil
}

// StylizationCompleted persists the themed half. Completing the pair fires
// the pair-ready path via the store callback.
func (b *Booth) StylizationCompleted(timestamp string, data []byte) error {
	if _, err := b.store.SaveThemed(timestamp, data); err != nil {
		b.machine.Fail(capture.CategoryGeneric, err.Error())
		return err
	}
	b.machine.StylizationSucceeded()
	return nil
}

// StylizationFailed surfaces a collaborator failure into the capture
// machine's error state.
func (b *Booth) StylizationFailed(category capture.ErrorCategory, detail string) {
	b.machine.Fail(category, detail)
	if err := b.notifier.NotifyCaptureError(context.Background(), string(category), detail); err != nil {
		b.logger.Warn("capture error notification failed", logging.Error(err))
	}
}

// TestNotification pushes a test message through the configured notifier.
func (b *Booth) TestNotification(ctx context.Context) error {
	return b.notifier.TestNotification(ctx)
}

// RunCleanup triggers an on-demand eviction pass.
func (b *Booth) RunCleanup(ctx context.Context) (retention.Report, error) {
	report, err := b.janitor.Cleanup(ctx, b.retentionPolicy())
	if err != nil {
		return report, err
	}
	if report.FilesRemoved > 0 {
		if notifyErr := b.notifier.NotifyCleanupCompleted(ctx, report); notifyErr != nil {
			b.logger.Warn("cleanup notification failed", logging.Error(notifyErr))
		}
	}
	return report, nil
}

// Statistics reports library usage against the active retention policy.
func (b *Booth) Statistics() (pairstore.Statistics, error) {
	policy := b.retentionPolicy()
	return b.store.Statistics(policy.MaxAgeDays, policy.MaxPairCount)
}

// pairCompleted runs on the store's pair-complete callback: the slideshow
// learns about the new pair immediately and a push notification goes out.
func (b *Booth) pairCompleted(timestamp string) {
	b.slideshow.NudgeRescan()
	b.logger.Info("pair complete", logging.String(logging.FieldPairTimestamp, timestamp))
	original := filepath.Join(b.store.Dir(), pairstore.OriginalFileName(timestamp))
	themed := filepath.Join(b.store.Dir(), pairstore.ThemedFileName(timestamp))
	if err := b.notifier.NotifyPairReady(context.Background(), timestamp, original, themed); err != nil {
		b.logger.Warn("pair-ready notification failed", logging.Error(err))
	}
}

// captureSettings resolves capture timing, preferring runtime-adjusted
// values from the settings store over the config file.
func (b *Booth) captureSettings() capture.Settings {
	cfg := capture.Settings{
		CountdownSeconds:      b.cfg.Capture.CountdownSeconds,
		MinimumDisplaySeconds: b.cfg.Capture.MinimumDisplaySeconds,
		ErrorRecovery:         time.Duration(b.cfg.Capture.ErrorRecoverySeconds) * time.Second,
	}
	if b.settings == nil {
		return cfg
	}
	ctx := context.Background()
	if v, err := b.settings.Int(ctx, settings.KeyCountdownSeconds, cfg.CountdownSeconds); err == nil {
		cfg.CountdownSeconds = v
	}
	if v, err := b.settings.Int(ctx, settings.KeyMinimumDisplaySeconds, cfg.MinimumDisplaySeconds); err == nil {
		cfg.MinimumDisplaySeconds = v
	}
	return cfg
}

func (b *Booth) displaySeconds() int {
	value := b.cfg.Slideshow.DisplaySeconds
	if b.settings == nil {
		return value
	}
	if v, err := b.settings.Int(context.Background(), settings.KeyDisplaySeconds, value); err == nil {
		return v
	}
	return value
}

func (b *Booth) retentionPolicy() retention.Policy {
	policy := retention.Policy{
		MaxAgeDays:   b.cfg.Retention.MaxAgeDays,
		MaxPairCount: b.cfg.Retention.MaxPairCount,
	}
	if b.settings == nil {
		return policy
	}
	ctx := context.Background()
	if v, err := b.settings.Int(ctx, settings.KeyMaxAgeDays, policy.MaxAgeDays); err == nil {
		policy.MaxAgeDays = v
	}
	if v, err := b.settings.Int(ctx, settings.KeyMaxPairCount, policy.MaxPairCount); err == nil {
		policy.MaxPairCount = v
	}
	return policy
}

func (b *Booth) automaticCleanup() bool {
	enabled := b.cfg.Retention.AutomaticCleanup
	if b.settings == nil {
		return enabled
	}
	if v, err := b.settings.Bool(context.Background(), settings.KeyAutomaticCleanup, enabled); err == nil {
		return v
	}
	return enabled
}

// cleanupMarker adapts the settings store to the janitor's marker.
type cleanupMarker struct {
	store *settings.Store
}

func (m cleanupMarker) MarkCleanup(ctx context.Context, at time.Time) error {
	return m.store.SetTime(ctx, settings.KeyLastCleanupAt, at)
}
