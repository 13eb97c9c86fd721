package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateSlideshow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.CountdownSeconds < 1 || c.Capture.CountdownSeconds > 10 {
		return fmt.Errorf("capture.countdown_seconds must be between 1 and 10, got %d", c.Capture.CountdownSeconds)
	}
	if c.Capture.MinimumDisplaySeconds < 5 || c.Capture.MinimumDisplaySeconds > 30 {
		return fmt.Errorf("capture.minimum_display_seconds must be between 5 and 30, got %d", c.Capture.MinimumDisplaySeconds)
	}
	return nil
}

func (c *Config) validateSlideshow() error {
	if c.Slideshow.DisplaySeconds < 2 || c.Slideshow.DisplaySeconds > 10 {
		return fmt.Errorf("slideshow.display_seconds must be between 2 and 10, got %d", c.Slideshow.DisplaySeconds)
	}
	if c.Slideshow.RescanSeconds < 1 {
		return errors.New("slideshow.rescan_seconds must be at least 1")
	}
	if c.Slideshow.PrefetchWindow < 1 {
		return errors.New("slideshow.prefetch_window must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
