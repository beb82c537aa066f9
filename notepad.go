package notepad

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/notepad/internal/platform"
	"github.com/aretw0/notepad/pkg/core"
)

// --- Types ---

// Note is a public alias for the persisted note.
type Note = core.Note

// Color is a public alias for the note color tag.
type Color = core.Color

// Config is the notepad.yaml configuration merged with the environment.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring notepad.
type Option = platform.Option

// WithLogger sets the logger for the store and service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom store implementation.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithMetrics registers the store metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return platform.WithMetrics(reg)
}

// WithExternalWatch refreshes live streams on writes from other processes.
func WithExternalWatch(enabled bool) Option {
	return platform.WithExternalWatch(enabled)
}

// WithForceTemp forces the database into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithBusyTimeout sets how long a write waits for another process's lock.
func WithBusyTimeout(d time.Duration) Option {
	return platform.WithBusyTimeout(d)
}

// WithErrorHandler receives background failures such as refresh errors.
func WithErrorHandler(fn func(error)) Option {
	return platform.WithErrorHandler(fn)
}

// --- Factory ---

// New opens the database at path and returns the repository handed to
// view-state holders. Use ":memory:" for a private in-memory database.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Open loads the configuration (see LoadConfig) and opens its database.
// Explicit opts are applied after the configured ones.
func Open(configPath string, opts ...Option) (*core.Service, Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, Config{}, err
	}
	svc, err := New(cfg.Database, append(cfg.Options(), opts...)...)
	if err != nil {
		return nil, cfg, err
	}
	return svc, cfg, nil
}

// Init opens and initializes the store without wrapping it in a Service.
func Init(path string, opts ...Option) (core.Store, error) {
	return platform.Init(path, opts...)
}

// --- Safety & Utils ---

// LoadConfig reads notepad.yaml (searched upwards when path is empty),
// .env and the NOTEPAD_* environment variables.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// ResolveDatabasePath determines the database file based on safety rules.
func ResolveDatabasePath(userPath string, forceTemp bool) string {
	return platform.ResolveDatabasePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a directory holding notepad.yaml or .notepad.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
