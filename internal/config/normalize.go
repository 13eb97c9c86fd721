package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRetention()
	c.normalizeCapture()
	c.normalizeSlideshow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeRetention() {
	if c.Retention.MaxAgeDays <= 0 {
		c.Retention.MaxAgeDays = defaultMaxAgeDays
	}
	if c.Retention.MaxPairCount < 0 {
		c.Retention.MaxPairCount = 0
	}
	if c.Retention.CleanupIntervalMinutes <= 0 {
		c.Retention.CleanupIntervalMinutes = defaultCleanupIntervalMinutes
	}
}

func (c *Config) normalizeCapture() {
	if c.Capture.CountdownSeconds <= 0 {
		c.Capture.CountdownSeconds = defaultCountdownSeconds
	}
	if c.Capture.MinimumDisplaySeconds <= 0 {
		c.Capture.MinimumDisplaySeconds = defaultMinimumDisplaySeconds
	}
	c.Capture.MinimumDisplaySeconds = clampInt(c.Capture.MinimumDisplaySeconds, 5, 30)
	if c.Capture.ErrorRecoverySeconds <= 0 {
		c.Capture.ErrorRecoverySeconds = defaultErrorRecoverySeconds
	}
}

func (c *Config) normalizeSlideshow() {
	if c.Slideshow.DisplaySeconds <= 0 {
		c.Slideshow.DisplaySeconds = defaultDisplaySeconds
	}
	c.Slideshow.DisplaySeconds = clampInt(c.Slideshow.DisplaySeconds, 2, 10)
	if c.Slideshow.RescanSeconds <= 0 {
		c.Slideshow.RescanSeconds = defaultRescanSeconds
	}
	if c.Slideshow.PrefetchWindow <= 0 {
		c.Slideshow.PrefetchWindow = defaultPrefetchWindow
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
