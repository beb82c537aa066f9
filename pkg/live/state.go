package live

import (
	"context"
	"sync"
)

// State is a value owned by a single writer and observed by many readers.
// Readers get snapshots through Value or a Subscription; only the owner calls
// Set or Update.
type State[T any] struct {
	mu    sync.Mutex
	value T
	subs  broadcaster[T]
}

// NewState creates a State holding initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial}
}

// Value returns the current snapshot.
func (s *State[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value and notifies subscribers.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.subs.publish(v)
}

// Update applies fn to the current value under the state lock and publishes
// the result.
func (s *State[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	s.subs.publish(s.value)
	return s.value
}

// Subscribe delivers the current value immediately and every later change.
func (s *State[T]) Subscribe(ctx context.Context) *Subscription[T] {
	return s.SubscribeFunc(ctx, nil)
}

// SubscribeFunc is Subscribe with a callback run once the subscription ends.
func (s *State[T]) SubscribeFunc(ctx context.Context, onClose func()) *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subs.add(ctx, onClose)
	sub.deliver(s.value)
	return sub
}

// Subscribers returns the number of active subscriptions.
func (s *State[T]) Subscribers() int {
	return s.subs.len()
}

// Close ends every subscription.
func (s *State[T]) Close() {
	s.subs.closeAll()
}
