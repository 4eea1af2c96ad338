// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"resound/internal/catalog"
	"resound/internal/config"
	"resound/internal/logging"
	"resound/internal/state"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.RenderDir = filepath.Join(base, "rendered")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Archive.RateLimitDelay = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

// WithRetryLimits overrides the per-stage retry ceilings.
func WithRetryLimits(download, conversion, upload int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.State.MaxDownloadRetries = download
		cfg.State.MaxConversionRetries = conversion
		cfg.State.MaxUploadRetries = upload
	}
}

// MustOpenManager opens the state manager over the test config and registers
// cleanup.
func MustOpenManager(t testing.TB, cfg *config.Config) *state.Manager {
	t.Helper()

	mgr, err := state.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open state manager: %v", err)
	}
	t.Cleanup(func() {
		if err := mgr.Close(); err != nil {
			t.Errorf("close state manager: %v", err)
		}
	})
	return mgr
}

// NewCatalogItem builds a minimal available catalog item for the given
// broadcast date.
func NewCatalogItem(identifier, title string, date time.Time) *catalog.Item {
	now := time.Now().UTC()
	return &catalog.Item{
		Identifier: identifier,
		Title:      title,
		Date:       date,
		Collection: []string{"hooting-yard"},
		Creator:    "Frank Key",
		Audio: &catalog.Audio{
			Filename: identifier + ".mp3",
			Size:     1 << 20,
			MD5:      "0123456789abcdef0123456789abcdef",
		},
		Discovery: catalog.Discovery{DiscoveredAt: now, LastChecked: now},
		Status: catalog.Availability{
			Available:   true,
			DownloadURL: "https://archive.org/download/" + identifier + "/" + identifier + ".mp3",
		},
	}
}

// WriteFile fills the target path with size bytes of a repeating pattern.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create parent directory: %v", err)
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
