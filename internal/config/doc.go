// Package config loads, validates, and normalizes the TOML configuration for
// the migration tool.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/resound/config.toml, then ./resound.toml. All path fields are
// expanded (including ~) and made absolute during load so downstream
// components never see relative paths.
package config
