// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultProvidersURL is the public oEmbed provider directory.
const DefaultProvidersURL = "https://oembed.com/providers.json"

// Cache lifespans.
const (
	LifespanNone   = "none"
	LifespanDaily  = "daily"
	LifespanWeekly = "weekly"
)

// Config holds all application configuration.
type Config struct {
	RemoteListEnabled bool     `toml:"remote_list_enabled"`
	ProvidersURL      string   `toml:"providers_url"`
	CacheLifespan     string   `toml:"cache_lifespan"`
	RestrictProviders bool     `toml:"restrict_providers"`
	AllowedProviders  []string `toml:"allowed_providers"`
	LazyLoad          bool     `toml:"lazy_load"`
	TargetTag         string   `toml:"target_tag"`
	Store             string   `toml:"store"`
	DataDir           string   `toml:"data_dir"`
	RefreshSchedule   string   `toml:"refresh_schedule"`
	Listen            string   `toml:"listen"`
	LogFile           string   `toml:"log_file"`
	Debug             bool     `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		RemoteListEnabled: true,
		ProvidersURL:      DefaultProvidersURL,
		CacheLifespan:     LifespanWeekly,
		RestrictProviders: false,
		LazyLoad:          true,
		TargetTag:         "a",
		Store:             "sqlite",
		DataDir:           "",
		RefreshSchedule:   "@daily",
		Listen:            "127.0.0.1:8080",
		Debug:             false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "embedrc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "embedrc"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadFile reads the config file at path and merges it with defaults.
// If the file doesn't exist, defaults are returned.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	switch strings.ToLower(c.CacheLifespan) {
	case LifespanNone, LifespanDaily, LifespanWeekly:
	default:
		return fmt.Errorf("unsupported cache lifespan %q (valid: none, daily, weekly)", c.CacheLifespan)
	}

	switch strings.ToLower(c.TargetTag) {
	case "a", "div":
	default:
		return fmt.Errorf("unsupported target tag %q (valid: a, div)", c.TargetTag)
	}

	switch strings.ToLower(c.Store) {
	case "sqlite", "file":
	default:
		return fmt.Errorf("unsupported store %q (valid: sqlite, file)", c.Store)
	}

	if c.RemoteListEnabled && c.ProvidersURL == "" {
		return fmt.Errorf("providers URL cannot be empty when the remote list is enabled")
	}

	if c.RestrictProviders && len(c.AllowedProviders) == 0 {
		return fmt.Errorf("restrict_providers needs at least one allowed provider")
	}

	return nil
}

// Lifespan returns the cache lifespan as a duration. Zero means the cache
// is never fresh.
func (c *Config) Lifespan() time.Duration {
	switch strings.ToLower(c.CacheLifespan) {
	case LifespanDaily:
		return 24 * time.Hour
	case LifespanWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// ExpandDataDir resolves the data directory, falling back to the XDG data
// home, and expands a leading ~.
func (c *Config) ExpandDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("getting home directory: %w", err)
			}
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "embedrc"), nil
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}
