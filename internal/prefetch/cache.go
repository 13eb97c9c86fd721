package prefetch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"

	"strobe/internal/logging"
)

// openImage is replaced in tests to decode without real image files.
var openImage = func(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

type entry struct {
	ready chan struct{}
	img   image.Image
	err   error
}

// Cache keeps a sliding window of decoded images around the slideshow
// position so that advancing never waits on disk. The window covers one
// image behind the center and windowSize ahead, at most windowSize+2
// entries in total.
type Cache struct {
	mu         sync.Mutex
	logger     *slog.Logger
	windowSize int
	paths      []string
	center     int
	entries    map[string]*entry
}

// New creates a cache holding up to windowSize decoded images ahead of the
// playback position.
func New(windowSize int, logger *slog.Logger) *Cache {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Cache{
		logger:     logging.NewComponentLogger(logger, "prefetch"),
		windowSize: windowSize,
		entries:    make(map[string]*entry),
	}
}

// SetList replaces the playlist and recenters on the given index. Decoded
// entries whose paths survive into the new window are kept; everything
// else is dropped.
func (c *Cache) SetList(paths []string, center int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append([]string(nil), paths...)
	c.center = clamp(center, 0, len(c.paths)-1)
	c.refillLocked()
}

// Recenter slides the window to a new playback position.
func (c *Cache) Recenter(center int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = clamp(center, 0, len(c.paths)-1)
	c.refillLocked()
}

// Get returns the decoded image for path, blocking until its background
// load finishes. A path outside the current window decodes synchronously;
// that is a cache miss, not an error.
func (c *Cache) Get(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	ent, ok := c.entries[path]
	if !ok {
		ent = &entry{ready: make(chan struct{})}
		c.entries[path] = ent
		go c.load(path, ent)
		c.logger.Debug("cache miss", logging.String("path", path))
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ent.ready:
	}
	if ent.err != nil {
		// Drop the failed entry so the next access retries; the file may
		// have still been mid-write.
		c.mu.Lock()
		if cur, ok := c.entries[path]; ok && cur == ent {
			delete(c.entries, path)
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("decode %s: %w", path, ent.err)
	}
	return ent.img, nil
}

// Clear drops every cached entry and the playlist.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = nil
	c.center = 0
	c.entries = make(map[string]*entry)
}

// Len reports the number of resident entries, loading or loaded.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// refillLocked evicts entries outside the window and starts loads for
// window paths that are not resident yet. Caller holds c.mu.
func (c *Cache) refillLocked() {
	want := make(map[string]struct{}, c.windowSize+2)
	if len(c.paths) > 0 {
		lo := clamp(c.center-1, 0, len(c.paths)-1)
		hi := clamp(c.center+c.windowSize, 0, len(c.paths)-1)
		for i := lo; i <= hi; i++ {
			want[c.paths[i]] = struct{}{}
		}
	}

	for path := range c.entries {
		if _, keep := want[path]; !keep {
			delete(c.entries, path)
		}
	}
	for path := range want {
		if _, resident := c.entries[path]; resident {
			continue
		}
		ent := &entry{ready: make(chan struct{})}
		c.entries[path] = ent
		go c.load(path, ent)
	}
}

func (c *Cache) load(path string, ent *entry) {
	img, err := openImage(path)
	ent.img = img
	ent.err = err
	close(ent.ready)
	if err != nil {
		logging.WarnWithContext(c.logger, "image decode failed",
			"prefetch_decode_failed",
			logging.String(logging.FieldErrorHint, "the file may still be mid-write, it will retry on next access"),
			logging.String("path", path),
			logging.Error(err))
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
