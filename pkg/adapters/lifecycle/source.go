// Package lifecycle bridges notepad streams to github.com/aretw0/lifecycle.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/live"
)

// Event carries one stream value as a lifecycle.Event.
type Event[T any] struct {
	Seq   int
	Value T

	describe func(T) string
}

func (e Event[T]) String() string {
	if e.describe != nil {
		return e.describe(e.Value)
	}
	return fmt.Sprintf("%v", e.Value)
}

type streamSource[T any] struct {
	sub      *live.Subscription[T]
	describe func(T) string
	out      chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits every value delivered on
// sub. describe renders an event; nil falls back to %v.
// The source owns sub and closes it when it stops.
func NewSource[T any](sub *live.Subscription[T], describe func(T) string) lifecycle.Source {
	return &streamSource[T]{
		sub:      sub,
		describe: describe,
		out:      make(chan lifecycle.Event),
	}
}

func (s *streamSource[T]) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *streamSource[T]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		defer s.sub.Close()

		seq := 0
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-s.sub.C():
				if !ok {
					return nil
				}
				seq++
				select {
				case s.out <- Event[T]{Seq: seq, Value: v, describe: s.describe}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
