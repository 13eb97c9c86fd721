package testsupport

import (
	"path/filepath"
	"testing"

	"strobe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Push notifications are disabled and the API binds to an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("prepare test directories: %v", err)
	}
	return &cfg
}

// WithRetention overrides the retention policy on the test config.
func WithRetention(maxAgeDays, maxPairCount int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retention.MaxAgeDays = maxAgeDays
		cfg.Retention.MaxPairCount = maxPairCount
	}
}
