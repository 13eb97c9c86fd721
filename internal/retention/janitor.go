package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"strobe/internal/logging"
	"strobe/internal/pairstore"
)

// ErrCleanupBusy is returned when a cleanup pass is already running.
var ErrCleanupBusy = errors.New("cleanup already in progress")

// Policy describes which files the janitor may remove.
type Policy struct {
	// MaxAgeDays removes pairs and orphans older than this many days.
	// Zero or negative disables age-based eviction.
	MaxAgeDays int
	// MaxPairCount caps the number of complete pairs; the oldest overflow
	// is removed. Zero or negative disables the cap.
	MaxPairCount int
}

// Report summarizes one cleanup pass.
type Report struct {
	PairsRemoved   int           `json:"pairs_removed"`
	OrphansRemoved int           `json:"orphans_removed"`
	FilesRemoved   int           `json:"files_removed"`
	BytesFreed     int64         `json:"bytes_freed"`
	Failures       []string      `json:"failures,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// CleanupMarker records when a cleanup pass last ran. *settings.Store
// satisfies this through a thin adapter in the daemon wiring.
type CleanupMarker interface {
	MarkCleanup(ctx context.Context, at time.Time) error
}

// Janitor applies the retention policy to the pair store directory. At most
// one cleanup pass runs at a time; concurrent callers get ErrCleanupBusy.
type Janitor struct {
	store  *pairstore.Store
	marker CleanupMarker
	logger *slog.Logger
	busy   atomic.Bool
}

// NewJanitor creates a janitor over the given store. marker may be nil.
func NewJanitor(store *pairstore.Store, marker CleanupMarker, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Janitor{
		store:  store,
		marker: marker,
		logger: logging.NewComponentLogger(logger, "retention"),
	}
}

// Busy reports whether a cleanup pass is currently running.
func (j *Janitor) Busy() bool {
	return j.busy.Load()
}

// Cleanup runs one eviction pass: pairs past the age limit, the oldest
// overflow beyond the pair cap, and orphans past the age limit. Individual
// file removal failures are collected in the report rather than aborting
// the pass.
func (j *Janitor) Cleanup(ctx context.Context, policy Policy) (Report, error) {
	if !j.busy.CompareAndSwap(false, true) {
		return Report{}, ErrCleanupBusy
	}
	defer j.busy.Store(false)

	report := Report{StartedAt: time.Now()}

	pairs, orphans, err := j.store.ScanAll()
	if err != nil {
		return report, fmt.Errorf("scan library: %w", err)
	}

	cutoff := time.Time{}
	if policy.MaxAgeDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -policy.MaxAgeDays)
	}

	doomed := selectPairs(pairs, cutoff, policy.MaxPairCount)
	for _, pair := range doomed {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		removed := 0
		for _, path := range []string{pair.OriginalPath, pair.ThemedPath} {
			size, rmErr := removeFile(path)
			if rmErr != nil {
				report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", path, rmErr))
				continue
			}
			removed++
			report.FilesRemoved++
			report.BytesFreed += size
		}
		if removed > 0 {
			report.PairsRemoved++
		}
	}

	if !cutoff.IsZero() {
		for _, orphan := range orphans {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			if !orphan.CreatedAt.Before(cutoff) {
				continue
			}
			size, rmErr := removeFile(orphan.Path)
			if rmErr != nil {
				report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", orphan.Path, rmErr))
				continue
			}
			report.OrphansRemoved++
			report.FilesRemoved++
			report.BytesFreed += size
		}
	}

	report.Duration = time.Since(report.StartedAt)

	if len(report.Failures) > 0 {
		logging.WarnWithContext(j.logger, "cleanup finished with failures",
			"cleanup_partial",
			logging.String(logging.FieldErrorHint, "check library directory permissions"),
			logging.String(logging.FieldImpact, "some files remain past the retention policy"),
			logging.Int("files_removed", report.FilesRemoved),
			logging.Int("failures", len(report.Failures)))
	} else {
		j.logger.Info("cleanup finished",
			logging.Int("pairs_removed", report.PairsRemoved),
			logging.Int("orphans_removed", report.OrphansRemoved),
			logging.Int64("bytes_freed", report.BytesFreed),
			logging.Duration("duration", report.Duration))
	}

	if j.marker != nil {
		if markErr := j.marker.MarkCleanup(ctx, report.StartedAt); markErr != nil {
			j.logger.Warn("failed to record cleanup time", logging.Error(markErr))
		}
	}

	return report, nil
}

// selectPairs returns the pairs the policy condemns: everything older than
// the cutoff plus the oldest overflow beyond maxPairs. Input is ordered
// newest first; the result is oldest first.
func selectPairs(pairs []pairstore.Pair, cutoff time.Time, maxPairs int) []pairstore.Pair {
	condemned := make(map[string]pairstore.Pair)

	if !cutoff.IsZero() {
		for _, pair := range pairs {
			if pair.CreatedAt.Before(cutoff) {
				condemned[pair.Timestamp] = pair
			}
		}
	}

	if maxPairs > 0 && len(pairs) > maxPairs {
		for _, pair := range pairs[maxPairs:] {
			condemned[pair.Timestamp] = pair
		}
	}

	result := make([]pairstore.Pair, 0, len(condemned))
	for _, pair := range condemned {
		result = append(result, pair)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

func removeFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	if err := os.Remove(path); err != nil {
		return 0, err
	}
	return info.Size(), nil
}
