package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
)

// Scope bounds the background work of one holder. Tasks started with Go run
// under the scope context; Close cancels it and waits for them.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	report func(error)

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewScope creates a scope ending with parent or Close, whichever comes first.
// Task failures and panics are logged and passed to report when non-nil.
func NewScope(parent context.Context, logger *slog.Logger, report func(error)) *Scope {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scope{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		report: report,
	}
}

// Context returns the scope context.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go runs fn in the background. It returns false, without running fn, once
// the scope has ended.
func (s *Scope) Go(name string, fn func(ctx context.Context) error) bool {
	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	lifecycle.Go(s.ctx, func(ctx context.Context) error {
		defer s.wg.Done()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.fail(name, err)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.fail(name, fmt.Errorf("%s panic: %w", name, err))
	}))
	return true
}

func (s *Scope) fail(name string, err error) {
	s.logger.Error("background task failed", "task", name, "error", err)
	if s.report != nil {
		s.report(err)
	}
}

// Done reports whether the scope has ended.
func (s *Scope) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.ctx.Err() != nil
}

// Close cancels the scope and waits for running tasks. It is idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
