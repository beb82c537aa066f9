// Package live provides the observable primitives behind every stream in
// notepad: live queries re-run on invalidation, holder-owned state containers
// and ref-counted shared upstreams.
//
// All streams share one delivery contract: a subscriber receives the current
// value as soon as it subscribes and then every subsequent change. Delivery is
// conflating, so a slow reader only ever sees the most recent value.
package live

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Subscription is a single consumer's view of a stream.
type Subscription[T any] struct {
	id uuid.UUID
	ch chan T

	mu      sync.Mutex
	closed  bool
	onClose func()
	stop    func() bool
}

func newSubscription[T any](onClose func()) *Subscription[T] {
	return &Subscription[T]{
		id:      uuid.New(),
		ch:      make(chan T, 1),
		onClose: onClose,
	}
}

// bind ties the subscription lifetime to ctx.
func (s *Subscription[T]) bind(ctx context.Context) {
	stop := context.AfterFunc(ctx, s.Close)
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
}

// ID identifies the subscription in logs and introspection.
func (s *Subscription[T]) ID() uuid.UUID {
	return s.id
}

// C returns the channel values are delivered on.
// It is closed once the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	stop := s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if s.onClose != nil {
		s.onClose()
	}
}

// Closed reports whether the subscription has ended.
func (s *Subscription[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// deliver replaces any undelivered value with v. It never blocks: the channel
// has capacity one and deliver is the only sender.
func (s *Subscription[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

// Next blocks until the next value arrives, the subscription closes or ctx ends.
func (s *Subscription[T]) Next(ctx context.Context) (T, bool) {
	var zero T
	select {
	case v, ok := <-s.ch:
		return v, ok
	case <-ctx.Done():
		return zero, false
	}
}

// broadcaster fans values out to a set of subscriptions.
type broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*Subscription[T]
}

func (b *broadcaster[T]) add(ctx context.Context, onClose func()) *Subscription[T] {
	id := uuid.New()
	sub := newSubscription[T](func() {
		b.remove(id)
		if onClose != nil {
			onClose()
		}
	})
	sub.id = id

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[uuid.UUID]*Subscription[T])
	}
	b.subs[id] = sub
	b.mu.Unlock()

	sub.bind(ctx)
	return sub
}

func (b *broadcaster[T]) remove(id uuid.UUID) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	subs := make([]*Subscription[T], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.deliver(v)
	}
}

func (b *broadcaster[T]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *broadcaster[T]) closeAll() {
	b.mu.Lock()
	subs := make([]*Subscription[T], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}
