package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/notepad/pkg/adapters/sqlite"
	"github.com/aretw0/notepad/pkg/live"
	"github.com/aretw0/notepad/pkg/viewstate"
)

// Environment variables overriding the configuration file.
const (
	EnvDatabase   = "NOTEPAD_DB"
	EnvLogLevel   = "NOTEPAD_LOG_LEVEL"
	EnvUndoWindow = "NOTEPAD_UNDO_WINDOW"
	EnvWatch      = "NOTEPAD_WATCH"
)

// Config is the notepad.yaml file merged with the environment.
type Config struct {
	// Database is the SQLite file. Relative paths are resolved against the
	// directory of the configuration file.
	Database      string        `yaml:"database"`
	LogLevel      string        `yaml:"log_level"`
	UndoWindow    time.Duration `yaml:"undo_window"`
	KeepAlive     time.Duration `yaml:"keep_alive"`
	BusyTimeout   time.Duration `yaml:"busy_timeout"`
	WatchExternal bool          `yaml:"watch_external"`
	DevSafety     *bool         `yaml:"dev_safety,omitempty"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-"`
}

// DefaultConfig returns the configuration used for a project rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Database:   filepath.Join(dir, SystemDir, "notes.db"),
		LogLevel:   "info",
		UndoWindow: viewstate.DefaultUndoWindow,
		KeepAlive:  live.DefaultKeepAlive,
	}
}

// LoadConfig reads the configuration. An empty path searches upwards from
// the working directory for notepad.yaml; finding none yields the defaults
// for the working directory. A .env file next to the configuration is
// loaded into the environment before overrides are applied, without
// replacing variables already set.
func LoadConfig(path string) (Config, error) {
	dir, err := configDir(path)
	if err != nil {
		return Config{}, err
	}
	if path == "" && hasFile(dir, ConfigFileName) {
		path = filepath.Join(dir, ConfigFileName)
	}

	cfg := DefaultConfig(dir)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.Source = path
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if cfg.Database != "" && cfg.Database != sqlite.MemoryPath && !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(dir, cfg.Database)
	}
	return cfg, nil
}

// configDir returns the directory relative paths resolve against.
func configDir(path string) (string, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return filepath.Dir(abs), nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := FindRoot(wd)
	if errors.Is(err, ErrRootNotFound) {
		return wd, nil
	}
	return root, err
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvUndoWindow); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUndoWindow, err)
		}
		c.UndoWindow = d
	}
	if v := os.Getenv(EnvWatch); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWatch, err)
		}
		c.WatchExternal = b
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Options translates the configuration into store options.
func (c Config) Options() []Option {
	opts := []Option{
		WithExternalWatch(c.WatchExternal),
		WithBusyTimeout(c.BusyTimeout),
	}
	if c.DevSafety != nil {
		opts = append(opts, WithDevSafety(*c.DevSafety))
	}
	return opts
}
