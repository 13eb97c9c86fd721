package pairstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"strobe/internal/fileutil"
	"strobe/internal/logging"
)

// SaveOriginal persists the original half of a pair delivered by the capture
// collaborator. Returns the stored path.
func (s *Store) SaveOriginal(timestamp string, data []byte) (string, error) {
	return s.save(OriginalFileName, timestamp, data, false)
}

// SaveThemed persists the themed half delivered by the stylization
// collaborator. When the original half already exists, registered
// pair-complete callbacks fire so playback picks the new pair up promptly.
func (s *Store) SaveThemed(timestamp string, data []byte) (string, error) {
	return s.save(ThemedFileName, timestamp, data, true)
}

func (s *Store) save(nameFn func(string) string, timestamp string, data []byte, completesPair bool) (string, error) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return "", errors.New("pairstore: empty timestamp")
	}
	if _, _, err := ParseTimestamp(timestamp); err != nil {
		return "", fmt.Errorf("pairstore: invalid timestamp %q: %w", timestamp, err)
	}
	if len(data) == 0 {
		return "", errors.New("pairstore: empty image payload")
	}

	path := filepath.Join(s.dir, nameFn(timestamp))
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pairstore: persist %q: %w", filepath.Base(path), err)
	}

	s.logger.Info("stored image",
		logging.String(logging.FieldPairTimestamp, timestamp),
		logging.String("file", filepath.Base(path)),
		logging.Int("size_bytes", len(data)),
	)

	if completesPair && s.hasOriginal(timestamp) {
		s.notifyComplete(timestamp)
	}
	return path, nil
}

func (s *Store) hasOriginal(timestamp string) bool {
	info, err := os.Stat(filepath.Join(s.dir, OriginalFileName(timestamp)))
	return err == nil && !info.IsDir() && info.Size() >= MinFileBytes
}
