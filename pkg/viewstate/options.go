// Package viewstate holds the state behind the note screens: the list with
// its delete-with-undo flow, the entry and edit forms and the detail view.
//
// Holders receive a core.Repository at construction, expose snapshots and
// live subscriptions of their state, and own a Scope that Close ends.
package viewstate

import (
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/notepad/pkg/live"
)

// Default timings of the delete-with-undo flow.
const (
	DefaultExitDuration = 300 * time.Millisecond
	DefaultUndoDuration = 4 * time.Second
	DefaultUndoWindow   = DefaultExitDuration + DefaultUndoDuration
)

// ErrNotLoaded is returned by operations that need the note before it has
// been read from the store.
var ErrNotLoaded = errors.New("note not loaded")

// Option configures a holder. Options a holder has no use for are ignored.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	keepAlive    time.Duration
	undoWindow   time.Duration
	filter       string
	errorHandler func(error)
}

func newOptions(opts []Option) options {
	o := options{
		keepAlive:  live.DefaultKeepAlive,
		undoWindow: DefaultUndoWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WithLogger sets the holder logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKeepAlive sets how long a shared store subscription outlives its last
// observer. Zero closes it immediately.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		o.keepAlive = d
	}
}

// WithUndoWindow sets how long a requested delete can be undone.
func WithUndoWindow(d time.Duration) Option {
	return func(o *options) {
		o.undoWindow = d
	}
}

// WithFilter restricts the list to notes whose heading matches a doublestar
// glob pattern.
func WithFilter(pattern string) Option {
	return func(o *options) {
		o.filter = pattern
	}
}

// WithErrorHandler receives failures of background work, such as a delete
// issued when an undo window expires.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
