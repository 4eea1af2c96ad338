package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateArchive() error {
	if c.Archive.Collection == "" {
		return errors.New("archive.collection must not be empty")
	}
	if !strings.HasPrefix(c.Archive.BaseURL, "http") {
		return fmt.Errorf("archive.base_url must be an http(s) URL, got %q", c.Archive.BaseURL)
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if c.YouTube.StartDate == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, c.YouTube.StartDate); err != nil {
		return fmt.Errorf("youtube.start_date must be RFC3339: %w", err)
	}
	return nil
}

func (c *Config) validateState() error {
	if c.State.MaxDownloadRetries < 0 || c.State.MaxConversionRetries < 0 || c.State.MaxUploadRetries < 0 {
		return errors.New("state retry ceilings must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
