package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
)

// Phase is the progress of an entry or edit form.
type Phase int

const (
	// Loading waits for the note being edited.
	Loading Phase = iota
	// Ready accepts edits and saves.
	Ready
	// Saved means the draft was persisted. Further edits are ignored.
	Saved
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saved:
		return "saved"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// FormState is what the entry and edit screens render.
type FormState struct {
	Draft NoteDetails
	Valid bool
	Phase Phase
}

// form is the draft handling shared by the entry and edit holders.
type form struct {
	state *live.State[FormState]

	// saveMu serializes saves so a double submit persists once.
	saveMu sync.Mutex
}

func newForm(phase Phase) *form {
	return &form{state: live.NewState(FormState{Phase: phase})}
}

// update replaces the draft unless the form is saved.
func (f *form) update(d NoteDetails) bool {
	updated := false
	f.state.Update(func(s FormState) FormState {
		if s.Phase == Saved {
			return s
		}
		updated = true
		return FormState{Draft: d, Valid: d.IsValid(), Phase: Ready}
	})
	return updated
}

// save persists the draft with persist when the form is ready and valid.
func (f *form) save(ctx context.Context, persist func(context.Context, NoteDetails) (NoteDetails, error)) (bool, error) {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	s := f.state.Value()
	if s.Phase != Ready || !s.Valid {
		return false, nil
	}
	saved, err := persist(ctx, s.Draft)
	if err != nil {
		return false, err
	}
	f.state.Update(func(cur FormState) FormState {
		return FormState{Draft: saved, Valid: true, Phase: Saved}
	})
	return true, nil
}

// EntryHolder backs the form creating a new note.
type EntryHolder struct {
	*form
	repo   core.Repository
	logger *slog.Logger
}

// NewEntryHolder creates an entry holder with an empty draft.
func NewEntryHolder(repo core.Repository, opts ...Option) *EntryHolder {
	o := newOptions(opts)
	h := &EntryHolder{
		form:   newForm(Ready),
		repo:   repo,
		logger: o.logger.With("holder", "entry"),
	}
	h.update(NoteDetails{})
	return h
}

// UpdateField replaces the draft and recomputes its validity. The id is
// assigned on save and cannot be set here. It returns false once saved.
func (h *EntryHolder) UpdateField(d NoteDetails) bool {
	d.ID = 0
	return h.update(d)
}

// Save inserts a valid draft and reports whether it did. An invalid draft
// is left untouched and nothing is persisted. Store failures are returned
// and leave the form ready for another attempt.
func (h *EntryHolder) Save(ctx context.Context) (bool, error) {
	return h.save(ctx, func(ctx context.Context, d NoteDetails) (NoteDetails, error) {
		id, err := h.repo.InsertNote(ctx, d.ToNote())
		if err != nil {
			return d, err
		}
		h.logger.Debug("note created", "id", id)
		d.ID = id
		return d, nil
	})
}

// Snapshot returns the current form state.
func (h *EntryHolder) Snapshot() FormState {
	return h.state.Value()
}

// Subscribe delivers the current form state and every change.
func (h *EntryHolder) Subscribe(ctx context.Context) *live.Subscription[FormState] {
	return h.state.Subscribe(ctx)
}

// Close ends every subscription.
func (h *EntryHolder) Close() {
	h.state.Close()
}
