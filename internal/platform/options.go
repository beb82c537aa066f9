package platform

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/notepad/pkg/core"
)

// options holds the internal configuration for the notepad service.
type options struct {
	store         core.Store
	logger        *slog.Logger
	registerer    prometheus.Registerer
	watchExternal bool
	forceTemp     bool
	devSafety     bool
	busyTimeout   time.Duration
	errorHandler  func(error)
}

// Option defines a functional option for configuring notepad.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the store and service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom store (e.g. a mock).
// If provided, the default SQLite store is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithMetrics registers the store metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithExternalWatch refreshes live streams when another process writes to
// the database file.
func WithExternalWatch(enabled bool) Option {
	return func(o *options) {
		o.watchExternal = enabled
	}
}

// WithForceTemp forces the database into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), the database is moved to a temporary directory so a
// development run never touches real notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithBusyTimeout sets how long a write waits for a lock held by another
// process.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}

// WithErrorHandler registers a callback for failures that happen outside a
// caller's request, such as live query refreshes and watcher errors.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
