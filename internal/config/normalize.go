package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	if err := c.normalizeConversion(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.RenderDir, err = expandPath(c.Paths.RenderDir); err != nil {
		return fmt.Errorf("paths.render_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() error {
	c.Archive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.BaseURL), "/")
	c.Archive.Collection = strings.TrimSpace(c.Archive.Collection)
	if c.Archive.TimeoutSeconds <= 0 {
		c.Archive.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Archive.RateLimitDelay < 0 {
		c.Archive.RateLimitDelay = defaultRateLimitDelay
	}
	if c.Archive.PageSize <= 0 {
		c.Archive.PageSize = defaultPageSize
	}
	if c.Archive.ChunkSize <= 0 {
		c.Archive.ChunkSize = defaultChunkSize
	}
	if c.Archive.RescanHours <= 0 {
		c.Archive.RescanHours = defaultRescanHours
	}
	return nil
}

func (c *Config) normalizeConversion() error {
	if c.Conversion.CoverImage != "" {
		expanded, err := expandPath(c.Conversion.CoverImage)
		if err != nil {
			return fmt.Errorf("conversion.cover_image: %w", err)
		}
		c.Conversion.CoverImage = expanded
	}
	if c.Conversion.FPS <= 0 {
		c.Conversion.FPS = defaultFPS
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.StartDate = strings.TrimSpace(c.YouTube.StartDate)
	if c.YouTube.IntervalDays <= 0 {
		c.YouTube.IntervalDays = defaultIntervalDays
	}
	if c.YouTube.UploadsPerDay <= 0 {
		c.YouTube.UploadsPerDay = defaultUploadsPerDay
	}
	if strings.TrimSpace(c.YouTube.PrivacyStatus) == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
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
}
