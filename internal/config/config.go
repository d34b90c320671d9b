package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "songbook"

type Config struct {
	DBPath string `koanf:"db_path"` // empty means the XDG data dir default

	Log LogConfig `koanf:"log"`

	// SQLite tuning
	Store StoreConfig `koanf:"store"`
}

// LogConfig selects the level and output format of the logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=text json logfmt"`
}

// StoreConfig holds catalog database settings.
type StoreConfig struct {
	BusyTimeoutMS int `koanf:"busy_timeout_ms" validate:"gte=0"` // default: 5000
}

// Load reads the config files in priority order, then any extra files, and
// validates the result.
func Load(extra ...string) (*Config, error) {
	return LoadFrom(append(getConfigPaths(), extra...)...)
}

// LoadFrom reads the given TOML files (last wins); missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		Log: LogConfig{Level: "info", Format: "text"},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.DBPath != "" {
		cfg.DBPath = expandPath(cfg.DBPath)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/songbook/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
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

// BusyTimeout returns the SQLite busy timeout with the default applied.
func (c *Config) BusyTimeout() int {
	if c.Store.BusyTimeoutMS <= 0 {
		return 5000
	}
	return c.Store.BusyTimeoutMS
}
