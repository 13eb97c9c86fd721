package pairstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"strobe/internal/logging"
)

// Store provides access to the flat photo library directory. It owns no
// in-memory pair state: every scan is a fresh directory listing, so files
// written or removed by external collaborators are picked up without
// coordination. No file locking is assumed; a partial or missing file is
// simply not yet a valid pair.
type Store struct {
	dir    string
	logger *slog.Logger

	mu         sync.RWMutex
	onComplete []func(timestamp string)

	statfs statfsFunc
}

// New builds a store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "pairstore"),
		statfs: realStatfs,
	}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// OnPairComplete registers a callback fired when SaveThemed completes a pair.
// Callbacks run on the writer's goroutine and should hand off quickly.
func (s *Store) OnPairComplete(fn func(timestamp string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onComplete = append(s.onComplete, fn)
	s.mu.Unlock()
}

func (s *Store) notifyComplete(timestamp string) {
	s.mu.RLock()
	callbacks := make([]func(string), len(s.onComplete))
	copy(callbacks, s.onComplete)
	s.mu.RUnlock()
	for _, fn := range callbacks {
		fn(timestamp)
	}
}

// Scan reconstructs the ordered pair list from the store directory.
// The result is newest-first by parsed timestamp, ties broken by filename.
func (s *Store) Scan() ([]Pair, error) {
	pairs, _, err := s.ScanAll()
	return pairs, err
}

// ScanAll returns valid pairs plus the orphaned files a cleanup run needs to
// consider. File-level anomalies (undersized writes, unmatched halves,
// unparseable timestamps) are logged and absorbed; only directory-level
// failures surface as errors.
func (s *Store) ScanAll() ([]Pair, []Orphan, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if mkErr := os.MkdirAll(s.dir, 0o755); mkErr != nil {
				return nil, nil, fmt.Errorf("%w: create %q: %w", ErrDirectoryRead, s.dir, mkErr)
			}
			return []Pair{}, nil, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, nil, fmt.Errorf("%w: %q: %w", ErrDirectoryPermission, s.dir, err)
		}
		return nil, nil, fmt.Errorf("%w: %q: %w", ErrDirectoryRead, s.dir, err)
	}

	type half struct {
		name string
		path string
		size int64
		mod  os.FileInfo
	}
	originals := make(map[string]half)
	themed := make(map[string]half)
	var orphans []Orphan

	addOrphan := func(h half, timestamp string) {
		created := time.Time{}
		if _, parsed, err := ParseTimestamp(timestamp); err == nil {
			created = parsed
		} else if h.mod != nil {
			created = h.mod.ModTime()
		}
		orphans = append(orphans, Orphan{
			Path:      h.path,
			Name:      h.name,
			Timestamp: timestamp,
			CreatedAt: created,
			SizeBytes: h.size,
		})
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		isOriginal, timestamp, ok := parseName(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// File vanished between listing and stat; not currently a valid
			// pair, next scan settles it.
			continue
		}
		h := half{name: name, path: filepath.Join(s.dir, name), size: info.Size(), mod: info}
		if info.Size() < MinFileBytes {
			logging.WarnWithContext(s.logger, "store file below size floor; excluded from pairing", "pair_file_undersized",
				logging.String("file", name),
				logging.Int64("size_bytes", info.Size()),
				logging.String(logging.FieldImpact, "pair will not appear in playback until rewritten"),
				logging.String(logging.FieldErrorHint, "likely a truncated write; the retention policy removes it once stale"),
			)
			addOrphan(h, timestamp)
			continue
		}
		if isOriginal {
			originals[timestamp] = h
		} else {
			themed[timestamp] = h
		}
	}

	pairs := make([]Pair, 0, len(originals))
	for timestamp, orig := range originals {
		counterpart, found := themed[timestamp]
		if !found {
			s.logger.Debug("original without themed counterpart",
				logging.String(logging.FieldPairTimestamp, timestamp),
				logging.String("file", orig.name),
			)
			addOrphan(orig, timestamp)
			continue
		}
		delete(themed, timestamp)

		id, createdAt, err := ParseTimestamp(timestamp)
		if err != nil {
			logging.WarnWithContext(s.logger, "pair timestamp failed to parse; pair dropped", "pair_timestamp_unparseable",
				logging.String(logging.FieldPairTimestamp, timestamp),
				logging.Error(err),
				logging.String(logging.FieldImpact, "pair excluded from playback"),
			)
			addOrphan(orig, timestamp)
			addOrphan(counterpart, timestamp)
			continue
		}

		pairs = append(pairs, Pair{
			Timestamp:     timestamp,
			ID:            id,
			OriginalPath:  orig.path,
			ThemedPath:    counterpart.path,
			OriginalBytes: orig.size,
			ThemedBytes:   counterpart.size,
			CreatedAt:     createdAt,
		})
	}

	// Remaining themed halves never found an original.
	for timestamp, h := range themed {
		s.logger.Debug("themed without original counterpart",
			logging.String(logging.FieldPairTimestamp, timestamp),
			logging.String("file", h.name),
		)
		addOrphan(h, timestamp)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].ID != pairs[j].ID {
			return pairs[i].ID > pairs[j].ID
		}
		return filepath.Base(pairs[i].OriginalPath) < filepath.Base(pairs[j].OriginalPath)
	})

	return pairs, orphans, nil
}
