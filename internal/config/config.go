// Package config loads dashdocs settings from a TOML file and DASHDOCS_*
// environment variables. Environment variables override the file, and
// command line flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables
const (
	EnvConfigPath    = "DASHDOCS_CONFIG"
	EnvDocsetPath    = "DASHDOCS_DOCSET_PATH"
	EnvFuzzySearch   = "DASHDOCS_FUZZY_SEARCH"
	EnvWorkers       = "DASHDOCS_WORKERS"
	EnvCacheEnabled  = "DASHDOCS_CACHE_ENABLED"
	EnvCacheSize     = "DASHDOCS_CACHE_SIZE"
	EnvWatch         = "DASHDOCS_WATCH"
	EnvWatchDebounce = "DASHDOCS_WATCH_DEBOUNCE"
	EnvLogLevel      = "DASHDOCS_LOG_LEVEL"
)

const (
	defaultCacheSize     = 10
	defaultWatchDebounce = 500 * time.Millisecond
	defaultLogLevel      = "info"
)

var (
	// ErrInvalidConfig is returned by Validate
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Duration is a time.Duration written as a string such as "500ms" in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds all dashdocs settings
type Config struct {
	DocsetPath    string   `toml:"docset_path"`
	FuzzySearch   bool     `toml:"fuzzy_search"`
	Workers       int      `toml:"workers"`
	CacheEnabled  bool     `toml:"cache_enabled"`
	CacheSize     int      `toml:"cache_size"`
	Watch         bool     `toml:"watch"`
	WatchDebounce Duration `toml:"watch_debounce"`
	LogLevel      string   `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DocsetPath:    filepath.Join(homeDir(), ".dashdocs", "docsets"),
		CacheEnabled:  true,
		CacheSize:     defaultCacheSize,
		WatchDebounce: Duration(defaultWatchDebounce),
		LogLevel:      defaultLogLevel,
	}
}

// DefaultPath is ~/.dashdocs/config.toml
func DefaultPath() string {
	return filepath.Join(homeDir(), ".dashdocs", "config.toml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Load reads the configuration file at path, then applies environment
// overrides and validates the result. With an empty path, DASHDOCS_CONFIG or
// DefaultPath is used and a missing file is not an error.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, ok := lookup(EnvConfigPath); ok && p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath()
		}
	}

	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.DocsetPath = expandHome(cfg.DocsetPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, strict.String())
		}
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDocsetPath); ok && v != "" {
		c.DocsetPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{EnvFuzzySearch, &c.FuzzySearch},
		{EnvCacheEnabled, &c.CacheEnabled},
		{EnvWatch, &c.Watch},
	}
	for _, b := range bools {
		v, ok := lookup(b.env)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, b.env, err)
		}
		*b.dst = parsed
	}

	ints := []struct {
		env string
		dst *int
	}{
		{EnvWorkers, &c.Workers},
		{EnvCacheSize, &c.CacheSize},
	}
	for _, i := range ints {
		v, ok := lookup(i.env)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, i.env, err)
		}
		*i.dst = parsed
	}

	if v, ok := lookup(EnvWatchDebounce); ok && v != "" {
		if err := c.WatchDebounce.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvWatchDebounce, err)
		}
	}

	return nil
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}

// Validate checks the settings for consistency
func (c *Config) Validate() error {
	if c.DocsetPath == "" {
		return fmt.Errorf("%w: docset_path must not be empty", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative, got %d", ErrInvalidConfig, c.CacheSize)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("%w: watch_debounce must not be negative", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
}

// Debounce returns WatchDebounce as a time.Duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.WatchDebounce)
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
