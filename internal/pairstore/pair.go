package pairstore

import (
	"strconv"
	"strings"
	"time"
)

const (
	originalPrefix = "original_"
	themedPrefix   = "themed_"
	fileExt        = ".jpg"

	// MinFileBytes is the floor below which a store file is treated as a
	// truncated or corrupt write and excluded from pairing.
	MinFileBytes = 1024
)

// Pair is one original capture plus its stylized counterpart, identified by
// a shared timestamp. The Timestamp field is the raw filename substring;
// pairing requires the original and themed substrings to be byte-identical,
// never numerically equivalent.
type Pair struct {
	Timestamp     string
	ID            float64
	OriginalPath  string
	ThemedPath    string
	OriginalBytes int64
	ThemedBytes   int64
	CreatedAt     time.Time
}

// Orphan is a store file that currently has no valid counterpart: an
// unmatched original or themed half, an undersized write, or a file whose
// timestamp substring failed to parse. Orphans are never returned as pairs
// but remain on disk until the age-based eviction policy claims them.
type Orphan struct {
	Path      string
	Name      string
	Timestamp string
	CreatedAt time.Time
	SizeBytes int64
}

// OriginalFileName returns the store filename for the original half of a pair.
func OriginalFileName(timestamp string) string {
	return originalPrefix + timestamp + fileExt
}

// ThemedFileName returns the store filename for the themed half of a pair.
func ThemedFileName(timestamp string) string {
	return themedPrefix + timestamp + fileExt
}

// NewTimestamp formats a capture time as the fractional-epoch string used in
// store filenames.
func NewTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}

// parseName splits a store filename into its kind prefix and timestamp
// substring. ok is false for files that do not follow the naming convention.
func parseName(name string) (original bool, timestamp string, ok bool) {
	if !strings.HasSuffix(name, fileExt) {
		return false, "", false
	}
	stem := strings.TrimSuffix(name, fileExt)
	switch {
	case strings.HasPrefix(stem, originalPrefix):
		timestamp = stem[len(originalPrefix):]
		original = true
	case strings.HasPrefix(stem, themedPrefix):
		timestamp = stem[len(themedPrefix):]
	default:
		return false, "", false
	}
	if timestamp == "" {
		return false, "", false
	}
	return original, timestamp, true
}

// ParseTimestamp converts a timestamp substring into epoch seconds and the
// equivalent wall-clock time. An error means the pair must be dropped.
func ParseTimestamp(timestamp string) (float64, time.Time, error) {
	id, err := strconv.ParseFloat(timestamp, 64)
	if err != nil {
		return 0, time.Time{}, err
	}
	sec := int64(id)
	nsec := int64((id - float64(sec)) * 1e9)
	return id, time.Unix(sec, nsec), nil
}
