package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"strobe/internal/logging"
	"strobe/internal/settings"
)

// Settings carries the tunable durations. The machine re-reads them at the
// start of every session so runtime adjustments apply without a restart.
type Settings struct {
	CountdownSeconds      int
	MinimumDisplaySeconds int
	ErrorRecovery         time.Duration
}

// SessionRecorder persists the session audit trail. *settings.Store
// satisfies it.
type SessionRecorder interface {
	RecordSessionStart(ctx context.Context, id, theme string, startedAt time.Time) error
	RecordSessionFinish(ctx context.Context, id, outcome, errorCategory string, finishedAt time.Time) error
}

// revealHold is how long the freshly styled image is presented before the
// minimum-display countdown starts.
const revealHold = time.Second

// Machine runs the capture session lifecycle. One session at a time; every
// timer callback carries the generation it was armed under and is ignored
// if the machine has moved on since.
type Machine struct {
	logger   *slog.Logger
	settings func() Settings
	trigger  func(sessionID, theme string)
	recorder SessionRecorder
	clock    func(time.Duration, func()) *time.Timer

	mu            sync.Mutex
	state         State
	gen           uint64
	sessionID     string
	theme         string
	countdown     int
	holdRemaining int
	errMessage    string
	errCategory   ErrorCategory
	preArmedTheme string
	subs          map[int]chan Snapshot
	nextSub       int
}

// New creates an idle machine. trigger is invoked (off the lock) when a
// countdown reaches zero and the camera should fire. recorder may be nil.
func New(settingsFn func() Settings, trigger func(sessionID, theme string), recorder SessionRecorder, logger *slog.Logger) *Machine {
	return &Machine{
		logger:   logging.NewComponentLogger(logger, "capture"),
		settings: settingsFn,
		trigger:  trigger,
		recorder: recorder,
		clock:    time.AfterFunc,
		state:    StateIdle,
		subs:     make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current machine state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a snapshot stream. The current state is delivered
// immediately; slow consumers miss intermediate transitions rather than
// blocking the machine.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 16)
	m.subs[id] = ch
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// Trigger starts a new capture session for the given theme. It is rejected
// with ErrSessionActive unless the machine is resting at Idle or
// ReadyForNext.
func (m *Machine) Trigger(theme string) (string, error) {
	m.mu.Lock()
	if m.state != StateIdle && m.state != StateReadyForNext {
		m.mu.Unlock()
		return "", ErrSessionActive
	}
	if theme == "" {
		theme = m.preArmedTheme
	}
	cfg := m.settings()

	m.gen++
	gen := m.gen
	m.sessionID = uuid.New().String()
	m.theme = theme
	m.preArmedTheme = ""
	m.countdown = cfg.CountdownSeconds
	m.errMessage = ""
	m.errCategory = ""
	m.setStateLocked(StateCountingDown)
	sessionID := m.sessionID

	m.clock(time.Second, func() { m.countdownTick(gen) })
	m.mu.Unlock()

	m.logger.Info("capture session started",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String("theme", theme),
		logging.Int("countdown", cfg.CountdownSeconds))
	if m.recorder != nil {
		if err := m.recorder.RecordSessionStart(context.Background(), sessionID, theme, time.Now()); err != nil {
			m.logger.Warn("failed to record session start", logging.Error(err))
		}
	}
	return sessionID, nil
}

// SelectTheme records a theme choice. During the minimum-display hold or at
// rest it pre-arms the next session; it never interrupts a live one.
func (m *Machine) SelectTheme(theme string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateIdle, StateMinimumDisplay, StateReadyForNext:
		m.preArmedTheme = theme
	}
}

// BeginProcessing moves a captured session into stylization.
func (m *Machine) BeginProcessing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCaptured {
		return
	}
	m.setStateLocked(StateProcessing)
}

// StylizationSucceeded reveals the styled result and starts the
// minimum-display hold after a brief reveal.
func (m *Machine) StylizationSucceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateProcessing {
		return
	}
	m.gen++
	gen := m.gen
	m.setStateLocked(StateRevealing)
	m.clock(revealHold, func() { m.beginMinimumDisplay(gen) })
}

// Fail moves a live session into the error state. The machine recovers to
// Idle on its own after the configured delay.
func (m *Machine) Fail(category ErrorCategory, detail string) {
	m.mu.Lock()
	switch m.state {
	case StateCountingDown, StateCaptured, StateProcessing, StateRevealing:
	default:
		m.mu.Unlock()
		return
	}
	cfg := m.settings()
	m.gen++
	gen := m.gen
	m.errCategory = category
	m.errMessage = category.FriendlyMessage()
	m.setStateLocked(StateError)
	sessionID := m.sessionID
	m.clock(cfg.ErrorRecovery, func() { m.recoverFromError(gen) })
	m.mu.Unlock()

	logging.ErrorWithContext(m.logger, "capture session failed",
		"capture_failed",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String("category", string(category)),
		logging.String("detail", detail))
	if m.recorder != nil {
		if err := m.recorder.RecordSessionFinish(context.Background(), sessionID, settings.OutcomeFailed, string(category), time.Now()); err != nil {
			m.logger.Warn("failed to record session outcome", logging.Error(err))
		}
	}
}

func (m *Machine) countdownTick(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateCountingDown {
		m.mu.Unlock()
		return
	}
	m.countdown--
	if m.countdown > 0 {
		m.setStateLocked(StateCountingDown)
		m.clock(time.Second, func() { m.countdownTick(gen) })
		m.mu.Unlock()
		return
	}
	m.countdown = 0
	m.setStateLocked(StateCaptured)
	sessionID, theme := m.sessionID, m.theme
	m.mu.Unlock()

	if m.trigger != nil {
		m.trigger(sessionID, theme)
	}
}

func (m *Machine) beginMinimumDisplay(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state != StateRevealing {
		return
	}
	cfg := m.settings()
	m.holdRemaining = cfg.MinimumDisplaySeconds
	m.setStateLocked(StateMinimumDisplay)
	m.clock(time.Second, func() { m.holdTick(gen) })
}

func (m *Machine) holdTick(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateMinimumDisplay {
		m.mu.Unlock()
		return
	}
	m.holdRemaining--
	if m.holdRemaining > 0 {
		m.setStateLocked(StateMinimumDisplay)
		m.clock(time.Second, func() { m.holdTick(gen) })
		m.mu.Unlock()
		return
	}
	m.holdRemaining = 0
	// The completed image stays on screen until the operator acts; there
	// is no automatic return to a live view from here.
	m.setStateLocked(StateReadyForNext)
	sessionID := m.sessionID
	m.mu.Unlock()

	m.logger.Info("capture session complete",
		logging.String(logging.FieldSessionID, sessionID))
	if m.recorder != nil {
		if err := m.recorder.RecordSessionFinish(context.Background(), sessionID, settings.OutcomeCompleted, "", time.Now()); err != nil {
			m.logger.Warn("failed to record session outcome", logging.Error(err))
		}
	}
}

func (m *Machine) recoverFromError(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state != StateError {
		return
	}
	m.sessionID = ""
	m.theme = ""
	m.countdown = 0
	m.holdRemaining = 0
	m.errMessage = ""
	m.errCategory = ""
	m.setStateLocked(StateIdle)
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:                   m.state,
		SessionID:               m.sessionID,
		Theme:                   m.theme,
		CountdownRemaining:      m.countdown,
		MinimumDisplayRemaining: m.holdRemaining,
		ErrorMessage:            m.errMessage,
		ErrorCategory:           m.errCategory,
	}
}

// setStateLocked updates the state and fans the snapshot out to
// subscribers. Caller holds m.mu.
func (m *Machine) setStateLocked(next State) {
	m.state = next
	snap := m.snapshotLocked()
	for _, sub := range m.subs {
		select {
		case sub <- snap:
		default:
		}
	}
}
