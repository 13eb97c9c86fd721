package slideshow

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"strobe/internal/logging"
	"strobe/internal/pairstore"
	"strobe/internal/prefetch"
)

// ErrNoPairs is returned by Start when the library holds no complete pairs.
// The display surface renders an empty state instead of a slideshow.
var ErrNoPairs = errors.New("no photo pairs available")

// Display duration bounds in seconds.
const (
	MinDisplaySeconds = 2
	MaxDisplaySeconds = 10
)

// DurationPersister stores the operator-adjusted display duration.
// *settings.Store satisfies it.
type DurationPersister interface {
	SetInt(ctx context.Context, key string, value int) error
}

// Snapshot is an immutable view of the slideshow, published on every change.
type Snapshot struct {
	Active          bool   `json:"active"`
	PairIndex       int    `json:"pair_index"`
	PairCount       int    `json:"pair_count"`
	ShowingOriginal bool   `json:"showing_original"`
	PairTimestamp   string `json:"pair_timestamp,omitempty"`
	DisplaySeconds  int    `json:"display_seconds"`
}

// Controller alternates every pair through its original and themed halves
// on a timer, rescanning the library in the background for new arrivals.
// It is the sole owner of the prefetch cache.
type Controller struct {
	logger     *slog.Logger
	store      *pairstore.Store
	cache      *prefetch.Cache
	persist    DurationPersister
	persistKey string
	rescanIvl  time.Duration
	clock      func(time.Duration, func()) *time.Timer

	mu              sync.Mutex
	active          bool
	pairs           []pairstore.Pair
	index           int
	showingOriginal bool
	displaySeconds  int
	advanceGen      uint64
	rescanGen       uint64
	subs            map[int]chan Snapshot
	nextSub         int
}

// New creates an inactive controller. persist may be nil.
func New(store *pairstore.Store, cache *prefetch.Cache, displaySeconds int, rescanInterval time.Duration, persist DurationPersister, persistKey string, logger *slog.Logger) *Controller {
	return &Controller{
		logger:         logging.NewComponentLogger(logger, "slideshow"),
		store:          store,
		cache:          cache,
		persist:        persist,
		persistKey:     persistKey,
		rescanIvl:      rescanInterval,
		clock:          time.AfterFunc,
		displaySeconds: clampSeconds(displaySeconds),
		subs:           make(map[int]chan Snapshot),
	}
}

// Start scans the library and begins playback at the newest pair's
// original image. Returns ErrNoPairs when the library is empty.
func (c *Controller) Start() error {
	pairs, err := c.store.Scan()
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return ErrNoPairs
	}

	c.mu.Lock()
	c.pairs = pairs
	c.index = 0
	c.showingOriginal = true
	c.active = true
	c.advanceGen++
	c.rescanGen++
	advGen, rescanGen := c.advanceGen, c.rescanGen
	c.cache.SetList(flatten(pairs), 0)
	c.armAdvanceLocked(advGen)
	c.armRescanLocked(rescanGen)
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Info("slideshow started", logging.Int("pairs", len(pairs)))
	return nil
}

// Stop cancels both timers, clears the prefetch cache, and goes inactive.
// Safe to call when already stopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	wasActive := c.active
	c.active = false
	c.advanceGen++
	c.rescanGen++
	c.pairs = nil
	c.index = 0
	c.showingOriginal = true
	c.cache.Clear()
	c.publishLocked()
	c.mu.Unlock()

	if wasActive {
		c.logger.Info("slideshow stopped")
	}
}

// Advance flips from original to themed, or moves to the next pair's
// original. Manual calls reset the pending advance timer.
func (c *Controller) Advance() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.advanceLocked()
	c.advanceGen++
	c.armAdvanceLocked(c.advanceGen)
	c.mu.Unlock()
}

// UpdateDisplayDuration clamps seconds to [2, 10], persists it, and when
// active reschedules the pending advance immediately.
func (c *Controller) UpdateDisplayDuration(seconds int) int {
	seconds = clampSeconds(seconds)

	c.mu.Lock()
	c.displaySeconds = seconds
	if c.active {
		c.advanceGen++
		c.armAdvanceLocked(c.advanceGen)
	}
	c.publishLocked()
	c.mu.Unlock()

	if c.persist != nil {
		if err := c.persist.SetInt(context.Background(), c.persistKey, seconds); err != nil {
			c.logger.Warn("failed to persist display duration", logging.Error(err))
		}
	}
	return seconds
}

// NudgeRescan requests an immediate library rescan, used when a new pair
// lands so it shows up before the next interval.
func (c *Controller) NudgeRescan() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.rescanGen++
	gen := c.rescanGen
	c.mu.Unlock()
	go c.rescan(gen)
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers a snapshot stream; the current state arrives first.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 16)
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// CurrentImage returns the decoded image for the on-screen position,
// blocking only when the prefetch window has not caught up.
func (c *Controller) CurrentImage(ctx context.Context) (image.Image, error) {
	c.mu.Lock()
	if !c.active || len(c.pairs) == 0 {
		c.mu.Unlock()
		return nil, ErrNoPairs
	}
	pair := c.pairs[c.index]
	path := pair.ThemedPath
	if c.showingOriginal {
		path = pair.OriginalPath
	}
	c.mu.Unlock()
	return c.cache.Get(ctx, path)
}

// advanceLocked applies one alternation step and recenters the prefetch
// window. Caller holds c.mu.
func (c *Controller) advanceLocked() {
	if len(c.pairs) == 0 {
		return
	}
	if c.showingOriginal {
		c.showingOriginal = false
	} else {
		c.showingOriginal = true
		c.index = (c.index + 1) % len(c.pairs)
	}
	c.cache.Recenter(c.position())
	c.publishLocked()
}

// position maps (pair index, half) onto the flattened playlist the cache
// walks: original then themed for every pair.
func (c *Controller) position() int {
	pos := c.index * 2
	if !c.showingOriginal {
		pos++
	}
	return pos
}

func (c *Controller) armAdvanceLocked(gen uint64) {
	c.clock(time.Duration(c.displaySeconds)*time.Second, func() { c.advanceTick(gen) })
}

func (c *Controller) advanceTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.advanceGen || !c.active {
		return
	}
	c.advanceLocked()
	// The next timer is armed only after this advance has been applied.
	c.armAdvanceLocked(gen)
}

func (c *Controller) armRescanLocked(gen uint64) {
	c.clock(c.rescanIvl, func() { c.rescanTick(gen) })
}

func (c *Controller) rescanTick(gen uint64) {
	c.mu.Lock()
	if gen != c.rescanGen || !c.active {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.rescan(gen)
}

// rescan refreshes the pair list off the timer path, re-anchoring the
// current pair by timestamp so playback is never interrupted.
func (c *Controller) rescan(gen uint64) {
	pairs, err := c.store.Scan()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.rescanGen || !c.active {
		return
	}
	if err != nil {
		c.logger.Warn("library rescan failed", logging.Error(err))
		c.armRescanLocked(gen)
		return
	}

	var currentTS string
	if c.index < len(c.pairs) {
		currentTS = c.pairs[c.index].Timestamp
	}

	changed := len(pairs) != len(c.pairs)
	prevIndex := c.index
	c.pairs = pairs
	c.index = anchorIndex(pairs, currentTS)
	if c.index != prevIndex {
		changed = true
	}
	if len(pairs) == 0 {
		// Everything was evicted mid-show; keep the slideshow nominally
		// active and let the next rescan revive it.
		c.cache.Clear()
		c.publishLocked()
		c.armRescanLocked(gen)
		return
	}
	c.cache.SetList(flatten(pairs), c.position())
	if changed {
		c.publishLocked()
	}
	c.armRescanLocked(gen)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Active:          c.active,
		PairIndex:       c.index,
		PairCount:       len(c.pairs),
		ShowingOriginal: c.showingOriginal,
		DisplaySeconds:  c.displaySeconds,
	}
	if c.index < len(c.pairs) {
		snap.PairTimestamp = c.pairs[c.index].Timestamp
	}
	return snap
}

func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	for _, sub := range c.subs {
		select {
		case sub <- snap:
		default:
		}
	}
}

// anchorIndex finds the pair the viewer is looking at in the refreshed
// list. A vanished pair falls back to index zero.
func anchorIndex(pairs []pairstore.Pair, timestamp string) int {
	if timestamp == "" {
		return 0
	}
	for i, pair := range pairs {
		if pair.Timestamp == timestamp {
			return i
		}
	}
	return 0
}

// flatten orders the playlist the way playback walks it: each pair's
// original immediately followed by its themed half.
func flatten(pairs []pairstore.Pair) []string {
	paths := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		paths = append(paths, pair.OriginalPath, pair.ThemedPath)
	}
	return paths
}

func clampSeconds(seconds int) int {
	if seconds < MinDisplaySeconds {
		return MinDisplaySeconds
	}
	if seconds > MaxDisplaySeconds {
		return MaxDisplaySeconds
	}
	return seconds
}
