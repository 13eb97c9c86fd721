package settings

import (
	"context"
	"testing"
	"time"

	"strobe/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.LibraryDir = t.TempDir()
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIntRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.Int(ctx, KeyDisplaySeconds, 5)
	if err != nil {
		t.Fatalf("Int failed: %v", err)
	}
	if got != 5 {
		t.Errorf("unset key should return fallback: got %d", got)
	}

	if err := store.SetInt(ctx, KeyDisplaySeconds, 8); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	got, err = store.Int(ctx, KeyDisplaySeconds, 5)
	if err != nil {
		t.Fatalf("Int failed: %v", err)
	}
	if got != 8 {
		t.Errorf("Int: got %d, want 8", got)
	}
}

func TestIntUnparseableFallsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.setValue(ctx, KeyMaxAgeDays, "not-a-number"); err != nil {
		t.Fatalf("setValue failed: %v", err)
	}
	got, err := store.Int(ctx, KeyMaxAgeDays, 7)
	if err != nil {
		t.Fatalf("Int failed: %v", err)
	}
	if got != 7 {
		t.Errorf("unparseable value should return fallback: got %d", got)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetBool(ctx, KeyAutomaticCleanup, false); err != nil {
		t.Fatalf("SetBool failed: %v", err)
	}
	got, err := store.Bool(ctx, KeyAutomaticCleanup, true)
	if err != nil {
		t.Fatalf("Bool failed: %v", err)
	}
	if got {
		t.Error("Bool: got true, want false")
	}
}

func TestTimeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, found, err := store.Time(ctx, KeyLastCleanupAt); err != nil || found {
		t.Fatalf("unset time: found=%v err=%v", found, err)
	}

	at := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	if err := store.SetTime(ctx, KeyLastCleanupAt, at); err != nil {
		t.Fatalf("SetTime failed: %v", err)
	}
	got, found, err := store.Time(ctx, KeyLastCleanupAt)
	if err != nil {
		t.Fatalf("Time failed: %v", err)
	}
	if !found || !got.Equal(at) {
		t.Errorf("Time: got %v (found=%v), want %v", got, found, at)
	}
}

func TestSessionAuditTrail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	if err := store.RecordSessionStart(ctx, "session-1", "noir", started); err != nil {
		t.Fatalf("RecordSessionStart failed: %v", err)
	}
	if err := store.RecordSessionStart(ctx, "session-2", "", started.Add(10*time.Second)); err != nil {
		t.Fatalf("RecordSessionStart failed: %v", err)
	}
	if err := store.RecordSessionFinish(ctx, "session-1", OutcomeCompleted, "", started.Add(30*time.Second)); err != nil {
		t.Fatalf("RecordSessionFinish failed: %v", err)
	}
	if err := store.RecordSessionFinish(ctx, "session-2", OutcomeFailed, "camera", started.Add(40*time.Second)); err != nil {
		t.Fatalf("RecordSessionFinish failed: %v", err)
	}

	sessions, err := store.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions: got %d, want 2", len(sessions))
	}
	if sessions[0].ID != "session-2" {
		t.Errorf("newest first: got %s", sessions[0].ID)
	}
	if sessions[0].Outcome != OutcomeFailed || sessions[0].ErrorCategory != "camera" {
		t.Errorf("failed session: %+v", sessions[0])
	}
	if sessions[1].Outcome != OutcomeCompleted || sessions[1].ErrorCategory != "" {
		t.Errorf("completed session: %+v", sessions[1])
	}
	if sessions[1].FinishedAt == nil {
		t.Error("completed session missing finish time")
	}
}

func TestRecordSessionStartRequiresID(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordSessionStart(context.Background(), "", "noir", time.Now()); err == nil {
		t.Fatal("expected an error for an empty session id")
	}
}
