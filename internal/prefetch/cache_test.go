package prefetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"
)

// fakeDecoder counts loads per path and can fail selectively.
type fakeDecoder struct {
	mu    sync.Mutex
	loads map[string]int
	fail  map[string]bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{loads: make(map[string]int), fail: make(map[string]bool)}
}

func (d *fakeDecoder) open(path string) (image.Image, error) {
	d.mu.Lock()
	d.loads[path]++
	shouldFail := d.fail[path]
	d.mu.Unlock()
	if shouldFail {
		return nil, errors.New("truncated file")
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (d *fakeDecoder) loadCount(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loads[path]
}

func installFakeDecoder(t *testing.T) *fakeDecoder {
	t.Helper()
	decoder := newFakeDecoder()
	original := openImage
	openImage = decoder.open
	t.Cleanup(func() { openImage = original })
	return decoder
}

func playlist(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/library/themed_%d.jpg", i)
	}
	return paths
}

func waitForLen(t *testing.T, cache *Cache, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cache.Len() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cache size never reached %d, at %d", want, cache.Len())
}

func TestSetListBoundsWindow(t *testing.T) {
	installFakeDecoder(t)
	cache := New(5, nil)

	cache.SetList(playlist(50), 10)

	// One behind plus windowSize ahead plus the center itself.
	if got := cache.Len(); got > 7 {
		t.Errorf("window exceeds bound: %d entries", got)
	}
	if got := cache.Len(); got != 7 {
		t.Errorf("expected full window of 7, got %d", got)
	}
}

func TestWindowClampsAtEdges(t *testing.T) {
	installFakeDecoder(t)
	cache := New(5, nil)

	cache.SetList(playlist(3), 0)
	if got := cache.Len(); got != 3 {
		t.Errorf("short playlist should cache everything, got %d", got)
	}

	cache.SetList(playlist(50), 49)
	if got := cache.Len(); got != 2 {
		t.Errorf("window at tail should hold 2 entries, got %d", got)
	}
}

func TestGetReturnsDecodedImage(t *testing.T) {
	installFakeDecoder(t)
	cache := New(3, nil)
	paths := playlist(10)
	cache.SetList(paths, 0)

	img, err := cache.Get(context.Background(), paths[0])
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if img == nil {
		t.Fatal("expected a decoded image")
	}
}

func TestRecenterKeepsOverlapAndEvictsRest(t *testing.T) {
	decoder := installFakeDecoder(t)
	cache := New(3, nil)
	paths := playlist(20)

	cache.SetList(paths, 5)
	waitForLen(t, cache, 5)
	if _, err := cache.Get(context.Background(), paths[6]); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	cache.Recenter(6)
	waitForLen(t, cache, 5)

	// paths[6] stayed in the window, so it must not be decoded again.
	if got := decoder.loadCount(paths[6]); got != 1 {
		t.Errorf("overlapping entry reloaded: %d loads", got)
	}
	// paths[4] fell out of the window.
	if _, err := cache.Get(context.Background(), paths[4]); err != nil {
		t.Fatalf("Get after eviction failed: %v", err)
	}
	if got := decoder.loadCount(paths[4]); got != 2 {
		t.Errorf("evicted entry should decode again, %d loads", got)
	}
}

func TestGetOutsideWindowIsMiss(t *testing.T) {
	decoder := installFakeDecoder(t)
	cache := New(2, nil)
	paths := playlist(20)
	cache.SetList(paths, 0)

	if _, err := cache.Get(context.Background(), paths[15]); err != nil {
		t.Fatalf("out-of-window Get failed: %v", err)
	}
	if got := decoder.loadCount(paths[15]); got != 1 {
		t.Errorf("expected a synchronous decode, got %d loads", got)
	}
}

func TestFailedDecodeRetriesOnNextAccess(t *testing.T) {
	decoder := installFakeDecoder(t)
	decoder.fail["/library/themed_0.jpg"] = true

	cache := New(2, nil)
	paths := playlist(5)
	cache.SetList(paths, 0)

	if _, err := cache.Get(context.Background(), paths[0]); err == nil {
		t.Fatal("expected decode failure")
	}

	decoder.mu.Lock()
	decoder.fail[paths[0]] = false
	decoder.mu.Unlock()

	if _, err := cache.Get(context.Background(), paths[0]); err != nil {
		t.Fatalf("retry after transient failure should succeed: %v", err)
	}
}

func TestGetHonorsContextCancellation(t *testing.T) {
	installFakeDecoder(t)
	cache := New(2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Get(ctx, "/library/themed_99.jpg")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestClearDropsEverything(t *testing.T) {
	installFakeDecoder(t)
	cache := New(3, nil)
	cache.SetList(playlist(10), 0)

	cache.Clear()
	if got := cache.Len(); got != 0 {
		t.Errorf("Clear left %d entries", got)
	}
}
