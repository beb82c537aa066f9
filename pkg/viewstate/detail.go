package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
)

// DetailState is what the detail screen renders.
type DetailState struct {
	Details NoteDetails
	// Loaded is false until the note was read. A note deleted afterwards
	// keeps its last details.
	Loaded bool
}

// DetailHolder backs the read-only view of one note.
type DetailHolder struct {
	repo   core.Repository
	id     int64
	logger *slog.Logger

	scope  *Scope
	shared *live.Shared[*core.Note]
	state  *live.State[DetailState]

	closeOnce sync.Once
}

// NewDetailHolder creates a detail holder for the note named by args. It
// panics when args carries no note id. The holder closes itself when ctx
// ends. The store is not queried until the first Subscribe.
func NewDetailHolder(ctx context.Context, repo core.Repository, args Args, opts ...Option) *DetailHolder {
	id := requireNoteID(args)
	o := newOptions(opts)

	h := &DetailHolder{
		repo:   repo,
		id:     id,
		logger: o.logger.With("holder", "detail", "id", id),
		state:  live.NewState(DetailState{}),
	}
	h.scope = NewScope(ctx, h.logger, o.errorHandler)
	h.shared = live.NewShared(h.scope.Context(), func(ctx context.Context) (*live.Subscription[*core.Note], error) {
		return repo.NoteStream(ctx, id)
	}, h.onNote, o.keepAlive, h.logger)
	context.AfterFunc(h.scope.Context(), h.Close)
	return h
}

// ID returns the id of the displayed note.
func (h *DetailHolder) ID() int64 {
	return h.id
}

func (h *DetailHolder) onNote(n *core.Note) {
	if n == nil {
		return
	}
	h.state.Set(DetailState{Details: FromNote(*n), Loaded: true})
}

// Subscribe delivers the current detail state and every change until ctx
// ends or the subscription is closed.
func (h *DetailHolder) Subscribe(ctx context.Context) (*live.Subscription[DetailState], error) {
	release, err := h.shared.Acquire()
	if err != nil {
		return nil, fmt.Errorf("subscribe to note %d: %w", h.id, err)
	}
	return h.state.SubscribeFunc(ctx, release), nil
}

// Snapshot returns the current detail state.
func (h *DetailHolder) Snapshot() DetailState {
	return h.state.Value()
}

// Delete removes the displayed note. It returns ErrNotLoaded before the
// note was read.
func (h *DetailHolder) Delete(ctx context.Context) error {
	s := h.state.Value()
	if !s.Loaded {
		return ErrNotLoaded
	}
	if err := h.repo.DeleteNote(ctx, s.Details.ToNote()); err != nil {
		return fmt.Errorf("delete note %d: %w", h.id, err)
	}
	h.logger.Debug("note deleted")
	return nil
}

// Close ends the store subscription and every state subscription.
func (h *DetailHolder) Close() {
	h.closeOnce.Do(func() {
		h.shared.Stop()
		h.scope.Close()
		h.state.Close()
	})
}
