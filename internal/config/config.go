package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	RenderDir   string `toml:"render_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	TempDir     string `toml:"temp_dir"`
}

// Archive contains configuration for the archive.org source collection.
type Archive struct {
	BaseURL        string  `toml:"base_url"`
	Collection     string  `toml:"collection"`
	Creator        string  `toml:"creator"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimitDelay float64 `toml:"rate_limit_delay"`
	RescanHours    int     `toml:"rescan_hours"`
	PageSize       int     `toml:"page_size"`
	ChunkSize      int     `toml:"chunk_size"`
	VerifyChecksum bool    `toml:"verify_checksums"`
}

// Conversion contains the still-image video rendering parameters.
type Conversion struct {
	CoverImage   string `toml:"cover_image"`
	Resolution   string `toml:"resolution"`
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
	FPS          int    `toml:"fps"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
}

// YouTube contains republication settings.
type YouTube struct {
	StartDate     string   `toml:"start_date"`
	IntervalDays  int      `toml:"interval_days"`
	Category      string   `toml:"category"`
	CategoryID    string   `toml:"category_id"`
	PrivacyStatus string   `toml:"privacy_status"`
	DefaultTags   []string `toml:"default_tags"`
	UploadsPerDay int      `toml:"uploads_per_day"`
}

// State contains pipeline tracker retry configuration.
type State struct {
	MaxDownloadRetries   int `toml:"max_download_retries"`
	MaxConversionRetries int `toml:"max_conversion_retries"`
	MaxUploadRetries     int `toml:"max_upload_retries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the migration tool.
//
// Configuration sections by subsystem:
//   - Paths: working directories for downloads, renders, state, and logs
//   - Archive: source collection, request pacing, and checksum policy
//   - Conversion: audio-to-video rendering parameters
//   - YouTube: publication scheduling and default metadata
//   - State: per-stage retry ceilings for the pipeline tracker
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Archive    Archive    `toml:"archive"`
	Conversion Conversion `toml:"conversion"`
	YouTube    YouTube    `toml:"youtube"`
	State      State      `toml:"state"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/resound/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("resound.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories the pipeline needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DownloadDir,
		c.Paths.RenderDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
		c.Paths.TempDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MaxRetries returns the configured retry ceiling for a stage name, or zero
// when the stage has no ceiling.
func (c *Config) MaxRetries(stage string) int {
	switch strings.ToLower(strings.TrimSpace(stage)) {
	case "download", "downloading":
		return c.State.MaxDownloadRetries
	case "conversion", "converting":
		return c.State.MaxConversionRetries
	case "upload", "uploading":
		return c.State.MaxUploadRetries
	default:
		return 0
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
