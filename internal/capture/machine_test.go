package capture

import (
	"context"
	"sync"
	"testing"
	"time"
)

// manualClock collects timer callbacks so tests fire them explicitly.
type manualClock struct {
	mu      sync.Mutex
	pending []func()
}

func (c *manualClock) afterFunc(_ time.Duration, fn func()) *time.Timer {
	c.mu.Lock()
	c.pending = append(c.pending, fn)
	c.mu.Unlock()
	return time.NewTimer(time.Hour)
}

func (c *manualClock) fire(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		t.Fatal("no pending timer to fire")
	}
	fn := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()
	fn()
}

func (c *manualClock) fireAll(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		c.fire(t)
	}
}

type recordedSession struct {
	id, theme, outcome, category string
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  []recordedSession
	finished []recordedSession
}

func (r *fakeRecorder) RecordSessionStart(_ context.Context, id, theme string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, recordedSession{id: id, theme: theme})
	return nil
}

func (r *fakeRecorder) RecordSessionFinish(_ context.Context, id, outcome, category string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, recordedSession{id: id, outcome: outcome, category: category})
	return nil
}

func testSettings() Settings {
	return Settings{
		CountdownSeconds:      3,
		MinimumDisplaySeconds: 10,
		ErrorRecovery:         2 * time.Second,
	}
}

func newTestMachine(t *testing.T) (*Machine, *manualClock, *fakeRecorder, func() []string) {
	t.Helper()
	clock := &manualClock{}
	recorder := &fakeRecorder{}
	var mu sync.Mutex
	var triggered []string
	machine := New(testSettings, func(sessionID, theme string) {
		mu.Lock()
		triggered = append(triggered, theme)
		mu.Unlock()
	}, recorder, nil)
	machine.clock = clock.afterFunc
	return machine, clock, recorder, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), triggered...)
	}
}

func TestTriggerRunsCountdownAndFiresCamera(t *testing.T) {
	machine, clock, _, triggered := newTestMachine(t)

	id, err := machine.Trigger("noir")
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}
	snap := machine.Snapshot()
	if snap.State != StateCountingDown || snap.CountdownRemaining != 3 {
		t.Fatalf("after trigger: %+v", snap)
	}

	clock.fire(t) // 3 -> 2
	if got := machine.Snapshot().CountdownRemaining; got != 2 {
		t.Errorf("countdown after first tick: got %d, want 2", got)
	}
	clock.fireAll(t, 2) // 2 -> 1 -> 0

	snap = machine.Snapshot()
	if snap.State != StateCaptured {
		t.Fatalf("expected Captured, got %s", snap.State)
	}
	if got := triggered(); len(got) != 1 || got[0] != "noir" {
		t.Errorf("camera trigger: got %v", got)
	}
}

func TestSecondTriggerWhileActiveIsRejected(t *testing.T) {
	machine, _, _, _ := newTestMachine(t)

	if _, err := machine.Trigger("noir"); err != nil {
		t.Fatalf("first trigger failed: %v", err)
	}
	if _, err := machine.Trigger("pop"); err != ErrSessionActive {
		t.Errorf("second trigger: got %v, want ErrSessionActive", err)
	}
	if got := machine.Snapshot().Theme; got != "noir" {
		t.Errorf("rejected trigger must not mutate the session: theme %q", got)
	}
}

func TestFullSessionReachesReadyForNext(t *testing.T) {
	machine, clock, recorder, _ := newTestMachine(t)

	id, _ := machine.Trigger("noir")
	clock.fireAll(t, 3) // countdown to Captured
	machine.BeginProcessing()
	if got := machine.Snapshot().State; got != StateProcessing {
		t.Fatalf("expected Processing, got %s", got)
	}
	machine.StylizationSucceeded()
	if got := machine.Snapshot().State; got != StateRevealing {
		t.Fatalf("expected Revealing, got %s", got)
	}
	clock.fire(t) // reveal hold -> MinimumDisplay

	snap := machine.Snapshot()
	if snap.State != StateMinimumDisplay || snap.MinimumDisplayRemaining != 10 {
		t.Fatalf("expected MinimumDisplay(10), got %+v", snap)
	}
	clock.fireAll(t, 10)

	snap = machine.Snapshot()
	if snap.State != StateReadyForNext {
		t.Fatalf("expected ReadyForNext, got %s", snap.State)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.finished) != 1 || recorder.finished[0].outcome != "completed" || recorder.finished[0].id != id {
		t.Errorf("audit trail: %+v", recorder.finished)
	}
}

func TestReadyForNextHoldsUntilOperatorActs(t *testing.T) {
	machine, clock, _, _ := newTestMachine(t)

	machine.Trigger("noir")
	clock.fireAll(t, 3)
	machine.BeginProcessing()
	machine.StylizationSucceeded()
	clock.fireAll(t, 11)

	if got := machine.Snapshot().State; got != StateReadyForNext {
		t.Fatalf("expected ReadyForNext, got %s", got)
	}
	// No pending timers remain: the machine does not return to Idle on
	// its own, the finished image stays up.
	clock.mu.Lock()
	pending := len(clock.pending)
	clock.mu.Unlock()
	if pending != 0 {
		t.Errorf("no timer should be armed at ReadyForNext, found %d", pending)
	}

	if _, err := machine.Trigger("pop"); err != nil {
		t.Errorf("a new trigger from ReadyForNext should start a session: %v", err)
	}
}

func TestProcessingFailureEntersErrorThenRecovers(t *testing.T) {
	machine, clock, recorder, _ := newTestMachine(t)

	machine.Trigger("noir")
	clock.fireAll(t, 3)
	machine.BeginProcessing()
	machine.Fail(CategoryAIService, "upstream returned 503")

	snap := machine.Snapshot()
	if snap.State != StateError {
		t.Fatalf("expected Error, got %s", snap.State)
	}
	if snap.ErrorMessage != CategoryAIService.FriendlyMessage() {
		t.Errorf("display message: %q", snap.ErrorMessage)
	}
	if snap.ErrorMessage == "upstream returned 503" {
		t.Error("technical detail must not reach the display surface")
	}

	clock.fire(t) // recovery delay
	snap = machine.Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected auto-recovery to Idle, got %s", snap.State)
	}
	if snap.ErrorMessage != "" || snap.SessionID != "" {
		t.Errorf("error residue after recovery: %+v", snap)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.finished) != 1 || recorder.finished[0].outcome != "failed" || recorder.finished[0].category != "ai_service" {
		t.Errorf("audit trail: %+v", recorder.finished)
	}
}

func TestStaleTimerCallbackIsInert(t *testing.T) {
	machine, clock, _, _ := newTestMachine(t)

	machine.Trigger("noir")
	// Grab the armed countdown tick but fail the session before it fires.
	clock.mu.Lock()
	stale := clock.pending[0]
	clock.pending = nil
	clock.mu.Unlock()

	machine.Fail(CategoryCamera, "device lost")
	clock.fire(t) // recovery -> Idle
	if got := machine.Snapshot().State; got != StateIdle {
		t.Fatalf("expected Idle, got %s", got)
	}

	stale()
	snap := machine.Snapshot()
	if snap.State != StateIdle || snap.CountdownRemaining != 0 {
		t.Errorf("stale countdown tick mutated the machine: %+v", snap)
	}
}

func TestSelectThemePreArmsDuringHold(t *testing.T) {
	machine, clock, _, _ := newTestMachine(t)

	machine.Trigger("noir")
	clock.fireAll(t, 3)
	machine.BeginProcessing()
	machine.StylizationSucceeded()
	clock.fire(t) // -> MinimumDisplay

	machine.SelectTheme("vintage")
	if got := machine.Snapshot().State; got != StateMinimumDisplay {
		t.Fatalf("theme selection during hold must not interrupt: %s", got)
	}

	clock.fireAll(t, 10) // hold -> ReadyForNext
	if _, err := machine.Trigger(""); err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	if got := machine.Snapshot().Theme; got != "vintage" {
		t.Errorf("pre-armed theme not applied: %q", got)
	}
}

func TestSelectThemeIgnoredMidSession(t *testing.T) {
	machine, _, _, _ := newTestMachine(t)

	machine.Trigger("noir")
	machine.SelectTheme("vintage")
	if got := machine.Snapshot().Theme; got != "noir" {
		t.Errorf("live session theme changed: %q", got)
	}
}

func TestSubscribeStreamsTransitions(t *testing.T) {
	machine, clock, _, _ := newTestMachine(t)

	stream, cancel := machine.Subscribe()
	defer cancel()

	first := <-stream
	if first.State != StateIdle {
		t.Fatalf("initial snapshot: %+v", first)
	}

	machine.Trigger("noir")
	got := <-stream
	if got.State != StateCountingDown {
		t.Fatalf("expected CountingDown snapshot, got %+v", got)
	}

	clock.fire(t)
	got = <-stream
	if got.CountdownRemaining != 2 {
		t.Errorf("tick snapshot: %+v", got)
	}
}
