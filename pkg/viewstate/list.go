package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
)

// Visibility is the delete-with-undo state of a listed note.
type Visibility int

const (
	// Visible notes are listed.
	Visible Visibility = iota
	// PendingDelete notes are hidden while their undo window runs.
	PendingDelete
	// Hidden notes have been deleted and wait for the store to drop them.
	Hidden
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case PendingDelete:
		return "pending_delete"
	case Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("Visibility(%d)", int(v))
	}
}

// ListState is what the list screen renders.
type ListState struct {
	// Notes are the visible notes ordered by heading.
	Notes []core.Note
	// Pending are the ids whose delete can still be undone.
	Pending []int64
	// Loaded is false until the store delivered its first result.
	Loaded bool
}

// ListHolder backs the note list.
type ListHolder struct {
	repo       core.Repository
	logger     *slog.Logger
	undoWindow time.Duration
	filter     string
	report     func(error)

	scope   *Scope
	shared  *live.Shared[[]core.Note]
	state   *live.State[ListState]
	pending *deferred

	mu     sync.Mutex
	notes  []core.Note
	loaded bool
	vis    map[int64]Visibility
	closed bool
}

// NewListHolder creates the list holder. The holder closes itself when ctx
// ends. The store is not queried until the first Subscribe.
func NewListHolder(ctx context.Context, repo core.Repository, opts ...Option) (*ListHolder, error) {
	o := newOptions(opts)
	if o.filter != "" && !doublestar.ValidatePattern(o.filter) {
		return nil, fmt.Errorf("invalid filter %q: %w", o.filter, doublestar.ErrBadPattern)
	}

	h := &ListHolder{
		repo:       repo,
		logger:     o.logger.With("holder", "list"),
		undoWindow: o.undoWindow,
		filter:     o.filter,
		report:     o.errorHandler,
		state:      live.NewState(ListState{Notes: []core.Note{}, Pending: []int64{}}),
		pending:    newDeferred(),
		vis:        make(map[int64]Visibility),
	}
	h.scope = NewScope(ctx, h.logger, o.errorHandler)
	h.shared = live.NewShared(h.scope.Context(), repo.AllNotesStream, h.onNotes, o.keepAlive, h.logger)
	context.AfterFunc(h.scope.Context(), h.Close)
	return h, nil
}

// Subscribe delivers the current list state and every change until ctx ends
// or the subscription is closed. The store subscription is shared by all
// observers and outlives the last one by the keep-alive window.
func (h *ListHolder) Subscribe(ctx context.Context) (*live.Subscription[ListState], error) {
	release, err := h.shared.Acquire()
	if err != nil {
		return nil, fmt.Errorf("subscribe to notes: %w", err)
	}
	return h.state.SubscribeFunc(ctx, release), nil
}

// Snapshot returns the current list state.
func (h *ListHolder) Snapshot() ListState {
	return h.state.Value()
}

// Visibility returns the delete-with-undo state of id.
func (h *ListHolder) Visibility(id int64) Visibility {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.vis[id]
}

// DeleteNote deletes n in the background. The result arrives through the
// next store emission; failures go to the error handler.
func (h *ListHolder) DeleteNote(n core.Note) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.pending.cancel(n.ID)
	h.vis[n.ID] = Hidden
	h.publishLocked()
	h.mu.Unlock()

	h.issueDelete(n)
}

// RequestDelete hides n and deletes it once the undo window elapses without
// an Undo. It returns false when n already has a delete in progress.
func (h *ListHolder) RequestDelete(n core.Note) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.vis[n.ID] != Visible {
		return false
	}
	if !h.pending.schedule(n.ID, h.undoWindow, func() { h.expire(n) }) {
		return false
	}
	h.vis[n.ID] = PendingDelete
	h.logger.Debug("delete requested", "id", n.ID, "window", h.undoWindow)
	h.publishLocked()
	return true
}

// Undo restores a note whose delete was requested. It returns false when
// there is nothing to undo, including when the window has already elapsed.
func (h *ListHolder) Undo(id int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.vis[id] != PendingDelete || !h.pending.cancel(id) {
		return false
	}
	delete(h.vis, id)
	h.logger.Debug("delete undone", "id", id)
	h.publishLocked()
	return true
}

func (h *ListHolder) expire(n core.Note) {
	h.mu.Lock()
	if h.closed || h.vis[n.ID] != PendingDelete {
		h.mu.Unlock()
		return
	}
	h.vis[n.ID] = Hidden
	h.publishLocked()
	h.mu.Unlock()

	h.issueDelete(n)
}

func (h *ListHolder) issueDelete(n core.Note) {
	started := h.scope.Go("delete-note", func(ctx context.Context) error {
		if err := h.repo.DeleteNote(ctx, n); err != nil {
			h.restore(n.ID)
			return fmt.Errorf("delete note %d: %w", n.ID, err)
		}
		h.deleted(n.ID)
		return nil
	})
	if !started {
		h.restore(n.ID)
	}
}

// restore makes a hidden note visible again after its delete failed.
func (h *ListHolder) restore(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.vis[id] == Hidden {
		delete(h.vis, id)
		h.publishLocked()
	}
}

// deleted forgets id when no store emission will do it.
func (h *ListHolder) deleted(id int64) {
	if h.shared.Active() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.vis[id] == Hidden {
		delete(h.vis, id)
	}
}

func (h *ListHolder) onNotes(notes []core.Note) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.notes = notes
	h.loaded = true

	present := make(map[int64]bool, len(notes))
	for _, n := range notes {
		present[n.ID] = true
	}
	for id, v := range h.vis {
		if present[id] {
			continue
		}
		switch v {
		case Hidden:
			delete(h.vis, id)
		case PendingDelete:
			// Deleted elsewhere while the undo window ran.
			h.pending.cancel(id)
			delete(h.vis, id)
		}
	}
	h.publishLocked()
}

func (h *ListHolder) publishLocked() {
	visible := make([]core.Note, 0, len(h.notes))
	for _, n := range h.notes {
		if h.vis[n.ID] != Visible || !h.matches(n) {
			continue
		}
		visible = append(visible, n)
	}

	pending := make([]int64, 0)
	for id, v := range h.vis {
		if v == PendingDelete {
			pending = append(pending, id)
		}
	}
	slices.Sort(pending)

	h.state.Set(ListState{Notes: visible, Pending: pending, Loaded: h.loaded})
}

func (h *ListHolder) matches(n core.Note) bool {
	if h.filter == "" {
		return true
	}
	ok, err := doublestar.Match(h.filter, n.Heading)
	return err == nil && ok
}

// Close cancels pending deletes, ends the store subscription and every
// state subscription, and waits for deletes already issued. No delete is
// issued after Close returns.
func (h *ListHolder) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.pending.cancelAll()
	h.shared.Stop()
	h.scope.Close()
	h.state.Close()
	h.logger.Debug("list holder closed")
}
