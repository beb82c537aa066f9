package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
)

// EditHolder backs the form editing an existing note.
type EditHolder struct {
	*form
	repo   core.Repository
	id     int64
	logger *slog.Logger
	scope  *Scope

	mu      sync.Mutex
	edited  bool
	loaded  chan struct{}
	loadErr error
}

// NewEditHolder creates an edit holder for the note named by args and starts
// loading it. It panics when args carries no note id.
func NewEditHolder(ctx context.Context, repo core.Repository, args Args, opts ...Option) *EditHolder {
	id := requireNoteID(args)
	o := newOptions(opts)

	h := &EditHolder{
		form:   newForm(Loading),
		repo:   repo,
		id:     id,
		logger: o.logger.With("holder", "edit", "id", id),
		loaded: make(chan struct{}),
	}
	h.scope = NewScope(ctx, h.logger, o.errorHandler)
	if !h.scope.Go("load-note", h.load) {
		h.finishLoad(context.Cause(h.scope.Context()))
	}
	return h
}

// ID returns the id of the note being edited.
func (h *EditHolder) ID() int64 {
	return h.id
}

// load takes the first existing version of the note from its stream.
func (h *EditHolder) load(ctx context.Context) error {
	sub, err := h.repo.NoteStream(ctx, h.id)
	if err != nil {
		h.finishLoad(err)
		return err
	}
	defer sub.Close()

	for {
		n, ok := sub.Next(ctx)
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = core.ErrClosed
			}
			h.finishLoad(err)
			return err
		}
		if n == nil {
			continue
		}
		h.apply(*n)
		h.finishLoad(nil)
		return nil
	}
}

// apply installs the loaded note as the draft unless the user already
// started editing.
func (h *EditHolder) apply(n core.Note) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.edited {
		h.logger.Debug("note loaded after edits began, keeping draft")
		return
	}
	h.update(FromNote(n))
	h.logger.Debug("note loaded")
}

func (h *EditHolder) finishLoad(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.loaded:
		return
	default:
	}
	h.loadErr = err
	close(h.loaded)
}

// Await blocks until the note is loaded and returns the load error, if any.
func (h *EditHolder) Await(ctx context.Context) error {
	select {
	case <-h.loaded:
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.loadErr != nil {
			return fmt.Errorf("load note %d: %w", h.id, h.loadErr)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateField replaces the draft and recomputes its validity. Edits made
// while the note is still loading are kept over the loaded version. The id
// always stays the one being edited. It returns false once saved.
func (h *EditHolder) UpdateField(d NoteDetails) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	d.ID = h.id
	if !h.update(d) {
		return false
	}
	h.edited = true
	return true
}

// Save updates the note with a valid draft and reports whether it did.
// An invalid draft, or one still loading, is not persisted.
func (h *EditHolder) Save(ctx context.Context) (bool, error) {
	return h.save(ctx, func(ctx context.Context, d NoteDetails) (NoteDetails, error) {
		d.ID = h.id
		if err := h.repo.UpdateNote(ctx, d.ToNote()); err != nil {
			return d, err
		}
		h.logger.Debug("note updated")
		return d, nil
	})
}

// Snapshot returns the current form state.
func (h *EditHolder) Snapshot() FormState {
	return h.state.Value()
}

// Subscribe delivers the current form state and every change.
func (h *EditHolder) Subscribe(ctx context.Context) *live.Subscription[FormState] {
	return h.state.Subscribe(ctx)
}

// Close stops loading and ends every subscription.
func (h *EditHolder) Close() {
	h.scope.Close()
	h.finishLoad(core.ErrClosed)
	h.state.Close()
}

// loading reports whether the load is still outstanding.
func (h *EditHolder) loading() bool {
	select {
	case <-h.loaded:
		return false
	default:
		return true
	}
}
