package booth

import (
	"bytes"
	"context"
	"testing"
	"time"

	"strobe/internal/capture"
	"strobe/internal/config"
	"strobe/internal/pairstore"
	"strobe/internal/testsupport"
)

func newTestBooth(t *testing.T) (*Booth, *pairstore.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := pairstore.New(cfg.Paths.LibraryDir, nil)
	b := New(cfg, store, nil, nil, nil, nil)
	return b, store, cfg
}

func seedPair(t *testing.T, dir string, at time.Time) string {
	t.Helper()
	return testsupport.WritePair(t, dir, at)
}

func TestRequestCaptureStopsSlideshow(t *testing.T) {
	b, _, cfg := newTestBooth(t)
	seedPair(t, cfg.Paths.LibraryDir, time.Now())

	if err := b.Slideshow().Start(); err != nil {
		t.Fatalf("slideshow start: %v", err)
	}

	id, err := b.RequestCapture("noir")
	if err != nil {
		t.Fatalf("RequestCapture failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}
	if b.Slideshow().Snapshot().Active {
		t.Error("slideshow must stop when a capture session starts")
	}
	if got := b.Capture().Snapshot().State; got != capture.StateCountingDown {
		t.Errorf("capture state: got %s", got)
	}
}

func TestSelectThemeStopsSlideshowAndPreArms(t *testing.T) {
	b, _, cfg := newTestBooth(t)
	seedPair(t, cfg.Paths.LibraryDir, time.Now())

	if err := b.Slideshow().Start(); err != nil {
		t.Fatalf("slideshow start: %v", err)
	}
	b.SelectTheme("vintage")

	if b.Slideshow().Snapshot().Active {
		t.Error("slideshow must stop on theme selection")
	}
	if _, err := b.RequestCapture(""); err != nil {
		t.Fatalf("RequestCapture failed: %v", err)
	}
	if got := b.Capture().Snapshot().Theme; got != "vintage" {
		t.Errorf("pre-armed theme not applied: %q", got)
	}
}

func TestCollaboratorEventsPersistBothHalves(t *testing.T) {
	b, store, _ := newTestBooth(t)

	ts := pairstore.NewTimestamp(time.Now())
	payload := bytes.Repeat([]byte{0x11}, 2048)

	if err := b.CaptureCompleted(ts, payload); err != nil {
		t.Fatalf("CaptureCompleted failed: %v", err)
	}
	pairs, err := store.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatal("half a pair must not be discoverable")
	}

	if err := b.StylizationCompleted(ts, payload); err != nil {
		t.Fatalf("StylizationCompleted failed: %v", err)
	}
	pairs, err = store.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Timestamp != ts {
		t.Fatalf("completed pair not discoverable: %+v", pairs)
	}
}

func TestCaptureCompletedRejectsBadTimestamp(t *testing.T) {
	b, _, _ := newTestBooth(t)

	if err := b.CaptureCompleted("not-a-timestamp", []byte("x")); err == nil {
		t.Fatal("expected an error for an unparseable timestamp")
	}
}

func TestStylizationFailureSurfacesInCaptureState(t *testing.T) {
	b, _, _ := newTestBooth(t)

	if _, err := b.RequestCapture("noir"); err != nil {
		t.Fatalf("RequestCapture failed: %v", err)
	}
	b.StylizationFailed(capture.CategoryAIService, "upstream 503")

	snap := b.Capture().Snapshot()
	if snap.State != capture.StateError {
		t.Fatalf("capture state: got %s, want error", snap.State)
	}
	if snap.ErrorCategory != capture.CategoryAIService {
		t.Errorf("error category: %s", snap.ErrorCategory)
	}
}

func TestRunCleanupAppliesPolicy(t *testing.T) {
	b, store, cfg := newTestBooth(t)
	cfg.Retention.MaxAgeDays = 7
	cfg.Retention.MaxPairCount = 0

	seedPair(t, cfg.Paths.LibraryDir, time.Now().AddDate(0, 0, -10))
	keep := seedPair(t, cfg.Paths.LibraryDir, time.Now())

	report, err := b.RunCleanup(context.Background())
	if err != nil {
		t.Fatalf("RunCleanup failed: %v", err)
	}
	if report.PairsRemoved != 1 {
		t.Errorf("PairsRemoved: got %d, want 1", report.PairsRemoved)
	}

	pairs, err := store.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Timestamp != keep {
		t.Errorf("surviving pairs: %+v", pairs)
	}
}

func TestStatisticsReflectsLibrary(t *testing.T) {
	b, _, cfg := newTestBooth(t)
	seedPair(t, cfg.Paths.LibraryDir, time.Now())
	seedPair(t, cfg.Paths.LibraryDir, time.Now().Add(time.Minute))

	stats, err := b.Statistics()
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.PairCount != 2 {
		t.Errorf("PairCount: got %d, want 2", stats.PairCount)
	}
	want := int64(4 * len(testsupport.PixelData(t)))
	if stats.TotalSizeBytes != want {
		t.Errorf("TotalSizeBytes: got %d, want %d", stats.TotalSizeBytes, want)
	}
}
