// Package config loads and saves the afkmon TOML configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/theirongolddev/afkmon/internal/model"
)

// Environment overrides.
const (
	EnvDBPath         = "AFKMON_DB"
	EnvAddr           = "AFKMON_ADDR"
	EnvExtensionToken = "AFKMON_EXTENSION_TOKEN"
)

// Config holds all afkmon configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Extension  ExtensionConfig  `toml:"extension"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	OwnerID string `toml:"owner_id"`
	Version string `toml:"version"`
}

// DatabaseConfig holds session store settings.
type DatabaseConfig struct {
	Path       string `toml:"path,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// ExtensionConfig holds extension sync and registry settings.
type ExtensionConfig struct {
	TimeoutSec      int    `toml:"timeout_sec"`
	RetryAttempts   int    `toml:"retry_attempts"`
	BackoffMS       int    `toml:"backoff_ms"`
	RegistryTTLSec  int    `toml:"registry_ttl_sec"`
	RegistryMax     int    `toml:"registry_max"`
	SyncIntervalSec int    `toml:"sync_interval_sec"`
	ExportLimit     int    `toml:"export_limit"`
	MaxPages        int    `toml:"max_pages"`
	Token           string `toml:"token,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Verbosity int `toml:"verbosity"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:    "127.0.0.1:8000",
			OwnerID: model.DefaultOwner,
			Version: "1.0.0",
		},
		Database: DatabaseConfig{
			TimeoutSec: 5,
		},
		Extension: ExtensionConfig{
			TimeoutSec:     30,
			RetryAttempts:  3,
			BackoffMS:      1000,
			RegistryTTLSec: 600,
			RegistryMax:    256,
			ExportLimit:    100,
			MaxPages:       20,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "afkmon")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "afkmon")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant directory for the database and daemon files.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "afkmon")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "afkmon")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvExtensionToken); v != "" {
		cfg.Extension.Token = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile is Save for an explicit path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		add("server.addr %q: %v", c.Server.Addr, err)
	}
	if c.Server.OwnerID == "" {
		add("server.owner_id must not be empty")
	}
	if c.Database.TimeoutSec <= 0 {
		add("database.timeout_sec must be > 0")
	}
	if c.Extension.TimeoutSec <= 0 {
		add("extension.timeout_sec must be > 0")
	}
	if c.Extension.RetryAttempts < 1 {
		add("extension.retry_attempts must be >= 1")
	}
	if c.Extension.BackoffMS < 0 {
		add("extension.backoff_ms must be >= 0")
	}
	if c.Extension.RegistryTTLSec <= 0 {
		add("extension.registry_ttl_sec must be > 0")
	}
	if c.Extension.RegistryMax <= 0 {
		add("extension.registry_max must be > 0")
	}
	if c.Extension.SyncIntervalSec < 0 {
		add("extension.sync_interval_sec must be >= 0")
	}
	if c.Extension.ExportLimit < 1 || c.Extension.ExportLimit > 1000 {
		add("extension.export_limit must be between 1 and 1000")
	}
	if c.Extension.MaxPages < 1 {
		add("extension.max_pages must be >= 1")
	}
	if c.Log.Verbosity < 0 {
		add("log.verbosity must be >= 0")
	}

	return errs.ErrorOrNil()
}

// DBPath returns the configured database path or the default under CacheDir.
func (c Config) DBPath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(CacheDir(), "sessions.db")
}

// DBTimeout returns the per-operation storage timeout.
func (c Config) DBTimeout() time.Duration {
	return time.Duration(c.Database.TimeoutSec) * time.Second
}

// ExtensionTimeout returns the per-attempt extension request timeout.
func (c Config) ExtensionTimeout() time.Duration {
	return time.Duration(c.Extension.TimeoutSec) * time.Second
}

// Backoff returns the base retry delay.
func (c Config) Backoff() time.Duration {
	return time.Duration(c.Extension.BackoffMS) * time.Millisecond
}

// RegistryTTL returns how long a registered extension lives without a heartbeat.
func (c Config) RegistryTTL() time.Duration {
	return time.Duration(c.Extension.RegistryTTLSec) * time.Second
}

// SyncInterval returns the background sync period; zero disables it.
func (c Config) SyncInterval() time.Duration {
	return time.Duration(c.Extension.SyncIntervalSec) * time.Second
}
