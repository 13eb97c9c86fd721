package pairstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"strobe/internal/logging"
)

// Watcher nudges interested components when a themed file lands in the store
// directory, so newly completed pairs show up without waiting for the next
// rescan interval. It is an accelerator only: the periodic rescan remains
// the source of truth, so missed filesystem events are harmless.
type Watcher struct {
	dir     string
	logger  *slog.Logger
	onPair  func(timestamp string)
	watcher *fsnotify.Watcher
}

// NewWatcher builds a watcher for the store directory. onPair fires with the
// timestamp substring of each themed arrival.
func NewWatcher(dir string, logger *slog.Logger, onPair func(timestamp string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("pairstore: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("pairstore: watch %q: %w", dir, err)
	}
	return &Watcher{
		dir:     dir,
		logger:  logging.NewComponentLogger(logger, "pairwatcher"),
		onPair:  onPair,
		watcher: fsw,
	}, nil
}

// Run consumes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			isOriginal, timestamp, ok := parseName(name)
			if !ok || isOriginal {
				continue
			}
			w.logger.Debug("themed file arrived",
				logging.String(logging.FieldPairTimestamp, timestamp),
				logging.String("file", name),
			)
			if w.onPair != nil {
				w.onPair(timestamp)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "store watch error; rescan interval still applies", "pair_watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "new pairs may appear with a short delay"),
			)
		}
	}
}
