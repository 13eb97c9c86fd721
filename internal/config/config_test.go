package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Error("exists should be false for a missing config file")
	}
	if resolved != path {
		t.Errorf("resolved path mismatch: got %q, want %q", resolved, path)
	}
	if cfg.Retention.MaxAgeDays != defaultMaxAgeDays {
		t.Errorf("MaxAgeDays default mismatch: got %d", cfg.Retention.MaxAgeDays)
	}
	if cfg.Slideshow.DisplaySeconds != defaultDisplaySeconds {
		t.Errorf("DisplaySeconds default mismatch: got %d", cfg.Slideshow.DisplaySeconds)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + filepath.Join(dir, "photos") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[retention]
max_age_days = 14
max_pair_count = 100

[slideshow]
display_seconds = 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("exists should be true")
	}
	if cfg.Retention.MaxAgeDays != 14 {
		t.Errorf("MaxAgeDays: got %d, want 14", cfg.Retention.MaxAgeDays)
	}
	if cfg.Retention.MaxPairCount != 100 {
		t.Errorf("MaxPairCount: got %d, want 100", cfg.Retention.MaxPairCount)
	}
	if cfg.Slideshow.DisplaySeconds != 8 {
		t.Errorf("DisplaySeconds: got %d, want 8", cfg.Slideshow.DisplaySeconds)
	}
	if cfg.Paths.LibraryDir != filepath.Join(dir, "photos") {
		t.Errorf("LibraryDir not expanded: %q", cfg.Paths.LibraryDir)
	}
}

func TestNormalizeClampsDurations(t *testing.T) {
	cfg := Default()
	cfg.Slideshow.DisplaySeconds = 99
	cfg.Capture.MinimumDisplaySeconds = 1
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Slideshow.DisplaySeconds != 10 {
		t.Errorf("DisplaySeconds should clamp to 10, got %d", cfg.Slideshow.DisplaySeconds)
	}
	if cfg.Capture.MinimumDisplaySeconds != 5 {
		t.Errorf("MinimumDisplaySeconds should clamp to 5, got %d", cfg.Capture.MinimumDisplaySeconds)
	}
}

func TestValidateRejectsBadCountdown(t *testing.T) {
	cfg := Default()
	cfg.Capture.CountdownSeconds = 45
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for countdown_seconds=45")
	}
	if !strings.Contains(err.Error(), "countdown_seconds") {
		t.Errorf("error should mention countdown_seconds: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[retention]") {
		t.Error("sample config should contain a [retention] section")
	}
}
