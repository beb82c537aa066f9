package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
)

// DefaultKeepAlive is how long a Shared upstream survives its last consumer.
const DefaultKeepAlive = 5 * time.Second

// Opener opens the upstream subscription of a Shared stream.
type Opener[T any] func(ctx context.Context) (*Subscription[T], error)

// Shared multiplexes one upstream subscription across any number of
// consumers. The upstream is opened by the first Acquire and closed
// keepAlive after the last release, so brief gaps between consumers
// do not re-run the upstream query.
type Shared[T any] struct {
	parent    context.Context
	open      Opener[T]
	onValue   func(T)
	keepAlive time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	refs   int
	cancel context.CancelFunc
	timer  *time.Timer
	done   chan struct{}
}

// NewShared creates a Shared stream. Values from the upstream are handed to
// onValue on a dedicated goroutine; parent bounds the upstream lifetime.
func NewShared[T any](parent context.Context, open Opener[T], onValue func(T), keepAlive time.Duration, logger *slog.Logger) *Shared[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Shared[T]{
		parent:    parent,
		open:      open,
		onValue:   onValue,
		keepAlive: keepAlive,
		logger:    logger,
	}
}

// Acquire registers a consumer and returns its release func.
// Release is idempotent.
func (s *Shared[T]) Acquire() (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.parent.Err(); err != nil {
		return nil, err
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel == nil {
		if err := s.start(); err != nil {
			return nil, err
		}
	}
	s.refs++

	var once sync.Once
	return func() { once.Do(s.release) }, nil
}

// Active reports whether the upstream is currently open.
func (s *Shared[T]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Refs returns the number of current consumers.
func (s *Shared[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Stop closes the upstream immediately regardless of consumers and waits for
// the pump goroutine to exit.
func (s *Shared[T]) Stop() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	done := s.done
	s.stopLocked()
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// start must be called with mu held.
func (s *Shared[T]) start() error {
	ctx, cancel := context.WithCancel(s.parent)
	sub, err := s.open(ctx)
	if err != nil {
		cancel()
		return err
	}
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.logger.Debug("shared stream opened", "subscription", sub.ID())

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(done)
		defer sub.Close()
		for v := range sub.C() {
			s.onValue(v)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("shared stream consumer failed", "subscription", sub.ID(), "error", err)
	}))
	return nil
}

func (s *Shared[T]) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs--
	if s.refs > 0 {
		return
	}
	s.refs = 0
	if s.keepAlive <= 0 {
		s.stopLocked()
		return
	}
	s.timer = time.AfterFunc(s.keepAlive, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.refs == 0 {
			s.timer = nil
			s.stopLocked()
		}
	})
}

func (s *Shared[T]) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.done = nil
	s.logger.Debug("shared stream closed")
}
