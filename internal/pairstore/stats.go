package pairstore

import (
	"time"

	"golang.org/x/sys/unix"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Statistics describes current store usage for the operator status surface.
// Always recomputed from a fresh directory listing; never cached.
type Statistics struct {
	PairCount      int     `json:"pair_count"`
	OrphanCount    int     `json:"orphan_count"`
	TotalFiles     int     `json:"total_files"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	OldestAgeDays  float64 `json:"oldest_age_days"`
	NeedsCleanup   bool    `json:"needs_cleanup"`
	FreeBytes      uint64  `json:"free_bytes"`
	TotalFSBytes   uint64  `json:"total_fs_bytes"`
}

// Statistics lists the store and derives usage numbers against the supplied
// retention thresholds. maxPairCount of 0 disables the count check.
func (s *Store) Statistics(maxAgeDays, maxPairCount int) (Statistics, error) {
	pairs, orphans, err := s.ScanAll()
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		PairCount:   len(pairs),
		OrphanCount: len(orphans),
		TotalFiles:  len(pairs)*2 + len(orphans),
	}

	now := time.Now()
	var oldest time.Time
	for _, pair := range pairs {
		stats.TotalSizeBytes += pair.OriginalBytes + pair.ThemedBytes
		if oldest.IsZero() || pair.CreatedAt.Before(oldest) {
			oldest = pair.CreatedAt
		}
	}
	for _, orphan := range orphans {
		stats.TotalSizeBytes += orphan.SizeBytes
	}
	if !oldest.IsZero() {
		stats.OldestAgeDays = now.Sub(oldest).Hours() / 24
	}

	if maxAgeDays > 0 && stats.OldestAgeDays > float64(maxAgeDays) {
		stats.NeedsCleanup = true
	}
	if maxPairCount > 0 && stats.PairCount > maxPairCount {
		stats.NeedsCleanup = true
	}

	if total, free, err := s.statfs(s.dir); err == nil {
		stats.TotalFSBytes = total
		stats.FreeBytes = free
	}

	return stats, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
