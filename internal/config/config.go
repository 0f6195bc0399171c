// Package config loads the tunesync configuration from TOML files.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunesync/internal/db"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// Storage drivers.
const (
	DriverSQLite      = "sqlite"
	DriverPreferences = "preferences"
	DriverMemory      = "memory"
)

type Config struct {
	Log      LogConfig      `koanf:"log"`
	Backend  BackendConfig  `koanf:"backend"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Resolver ResolverConfig `koanf:"resolver"`
	Bridge   BridgeConfig   `koanf:"bridge"`
	Storage  StorageConfig  `koanf:"storage"`
	PlayLog  PlayLogConfig  `koanf:"playlog"`

	// Last.fm scrobbling (enables the scrobble sink when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `koanf:"format"` // "text" or "json"
}

// BackendConfig holds the audio-resolution server settings.
type BackendConfig struct {
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	FallbackArtwork string        `koanf:"fallback_artwork"`
}

// CatalogConfig holds the video catalog settings.
type CatalogConfig struct {
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	RegionCode string `koanf:"region_code"` // default: KR
}

// ResolverConfig holds the stream URL cache settings.
type ResolverConfig struct {
	CacheTTL     time.Duration `koanf:"cache_ttl"`     // default: 3h
	CacheSize    int           `koanf:"cache_size"`    // default: 512
	ProbeTimeout time.Duration `koanf:"probe_timeout"` // default: 5s
}

// BridgeConfig holds the engine event bridge settings.
type BridgeConfig struct {
	DedupeWindow time.Duration `koanf:"dedupe_window"` // default: 1s
}

// StorageConfig selects where state is persisted.
type StorageConfig struct {
	Driver  string   `koanf:"driver"`  // "sqlite", "preferences" or "memory"
	Path    string   `koanf:"path"`    // sqlite database file
	Persist []string `koanf:"persist"` // keys to persist, default: all
}

// PlayLogConfig holds play log fan-out settings.
type PlayLogConfig struct {
	Timeout time.Duration `koanf:"timeout"` // per sink call, default: 10s
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// Load reads ~/.config/tunesync/config.toml and then ./config.toml.
// Later files win. Missing files are skipped.
func Load() (*Config, error) {
	return LoadFiles(getConfigPaths()...)
}

// LoadFiles reads the given files in order (last wins).
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Backend.BaseURL = strings.TrimSuffix(cfg.Backend.BaseURL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/tunesync/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tunesync", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// HasCatalogConfig returns true if catalog search is configured.
func (c *Config) HasCatalogConfig() bool {
	return c.Catalog.APIKey != ""
}

// HasBackendConfig returns true if the audio-resolution server is configured.
func (c *Config) HasBackendConfig() bool {
	return c.Backend.BaseURL != ""
}

// GetLoggerConfig returns the logger configuration. TUNESYNC_LOG_LEVEL
// overrides the file.
func (c *Config) GetLoggerConfig() logger.Config {
	level := logger.ParseLevel(c.Log.Level, slog.LevelInfo)
	if env := os.Getenv(logger.EnvLogLevel); env != "" {
		level = logger.ParseLevel(env, level)
	}
	format := c.Log.Format
	if format != "json" {
		format = "text"
	}
	return logger.Config{Level: level, Format: format}
}

// GetResolverConfig returns the resolver configuration with defaults applied.
func (c *Config) GetResolverConfig() ResolverConfig {
	cfg := c.Resolver

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 3 * time.Hour
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}

	return cfg
}

// GetDedupeWindow returns the track-changed de-duplication window.
func (c *Config) GetDedupeWindow() time.Duration {
	if c.Bridge.DedupeWindow <= 0 {
		return time.Second
	}
	return c.Bridge.DedupeWindow
}

// GetPlayLogTimeout returns the per-sink timeout.
func (c *Config) GetPlayLogTimeout() time.Duration {
	if c.PlayLog.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.PlayLog.Timeout
}

// GetStorageConfig returns the storage configuration with defaults applied.
// Unknown persist keys are dropped.
func (c *Config) GetStorageConfig() (StorageConfig, error) {
	cfg := c.Storage

	switch cfg.Driver {
	case DriverSQLite, DriverPreferences, DriverMemory:
	default:
		cfg.Driver = DriverSQLite
	}

	if cfg.Driver == DriverSQLite && cfg.Path == "" {
		path, err := db.DefaultPath()
		if err != nil {
			return StorageConfig{}, err
		}
		cfg.Path = path
	}

	if cfg.Persist == nil {
		cfg.Persist = ports.PersistKeys
	}
	cfg.Persist = lo.Uniq(lo.Filter(cfg.Persist, func(key string, _ int) bool {
		return lo.Contains(ports.PersistKeys, key)
	}))

	return cfg, nil
}

// Persists reports whether key is on the persistence whitelist.
func (s StorageConfig) Persists(key string) bool {
	return lo.Contains(s.Persist, key)
}
