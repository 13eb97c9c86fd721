package testsupport

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"strobe/internal/pairstore"
)

// PixelData returns a decodable image payload padded past the pair store
// size floor, usable for both halves of a fixture pair.
func PixelData(t testing.TB) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture image: %v", err)
	}
	data := buf.Bytes()
	if pad := pairstore.MinFileBytes + 16 - len(data); pad > 0 {
		data = append(data, make([]byte, pad)...)
	}
	return data
}

// WritePair writes a complete, correctly named original/themed pair dated
// at the given time and returns its timestamp.
func WritePair(t testing.TB, dir string, at time.Time) string {
	t.Helper()
	ts := pairstore.NewTimestamp(at)
	payload := PixelData(t)
	writeFixture(t, dir, pairstore.OriginalFileName(ts), payload)
	writeFixture(t, dir, pairstore.ThemedFileName(ts), payload)
	return ts
}

// WriteOriginal writes only the original half, leaving an orphan.
func WriteOriginal(t testing.TB, dir string, at time.Time) string {
	t.Helper()
	ts := pairstore.NewTimestamp(at)
	writeFixture(t, dir, pairstore.OriginalFileName(ts), PixelData(t))
	return ts
}

func writeFixture(t testing.TB, dir, name string, payload []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), payload, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
}
