package live

import (
	"context"
	"fmt"
	"sync"
)

// Loader reads the current result of a query.
type Loader[T any] func(ctx context.Context) (T, error)

// Query is a live query: a loader whose result is pushed to every subscriber
// each time the query is refreshed and the result changed.
type Query[T any] struct {
	name  string
	load  Loader[T]
	equal func(a, b T) bool

	// mu serializes loads so emissions never go back in time.
	mu     sync.Mutex
	last   T
	loaded bool
	subs   broadcaster[T]

	onIdle func()
}

// QueryOption configures a Query.
type QueryOption[T any] func(*Query[T])

// WithEqual sets the comparison used to suppress duplicate emissions.
// Without it every refresh is delivered.
func WithEqual[T any](equal func(a, b T) bool) QueryOption[T] {
	return func(q *Query[T]) {
		q.equal = equal
	}
}

// WithIdle registers a callback invoked when the last subscriber leaves.
func WithIdle[T any](fn func()) QueryOption[T] {
	return func(q *Query[T]) {
		q.onIdle = fn
	}
}

// NewQuery creates a live query named for logs.
func NewQuery[T any](name string, load Loader[T], opts ...QueryOption[T]) *Query[T] {
	q := &Query[T]{
		name: name,
		load: load,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name returns the query name.
func (q *Query[T]) Name() string {
	return q.name
}

// Subscribe loads the current result, delivers it to the new subscriber and
// keeps delivering on every changing refresh until ctx ends or the
// subscription is closed. A result that changed since the last delivery is
// also published to the existing subscribers.
func (q *Query[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	v, err := q.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.name, err)
	}
	// A change the next Refresh would compare against v must still reach
	// the existing subscribers.
	if q.loaded && (q.equal == nil || !q.equal(q.last, v)) {
		q.subs.publish(v)
	}
	q.last = v
	q.loaded = true

	sub := q.subs.add(ctx, q.idle)
	sub.deliver(v)
	return sub, nil
}

// Refresh reloads the result and delivers it when it differs from the last
// delivered value. Queries without subscribers are not reloaded.
func (q *Query[T]) Refresh(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.subs.len() == 0 {
		q.loaded = false
		return nil
	}

	v, err := q.load(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", q.name, err)
	}
	if q.loaded && q.equal != nil && q.equal(q.last, v) {
		return nil
	}
	q.last = v
	q.loaded = true
	q.subs.publish(v)
	return nil
}

// Subscribers returns the number of active subscriptions.
func (q *Query[T]) Subscribers() int {
	return q.subs.len()
}

// Close ends every subscription.
func (q *Query[T]) Close() {
	q.subs.closeAll()
}

func (q *Query[T]) idle() {
	if q.onIdle != nil && q.subs.len() == 0 {
		q.onIdle()
	}
}
