package viewstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
	"github.com/aretw0/notepad/pkg/viewstate"
)

func TestEntryHolder_SavePersistsLastDraft(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	h := viewstate.NewEntryHolder(repo)
	defer h.Close()

	assert.False(t, h.Snapshot().Valid, "empty draft is invalid")

	h.UpdateField(viewstate.NoteDetails{Heading: "Ga"})
	h.UpdateField(viewstate.NoteDetails{Heading: "Game", Description: "100.0", Color: core.ColorBlue})
	require.True(t, h.Snapshot().Valid)

	saved, err := h.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	state := h.Snapshot()
	assert.Equal(t, viewstate.Saved, state.Phase)
	require.NotZero(t, state.Draft.ID)

	n, err := repo.GetNote(ctx, state.Draft.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Note{ID: state.Draft.ID, Heading: "Game", Description: "100.0", Color: core.ColorBlue}, n)

	t.Run("Saved Form Ignores Further Saves", func(t *testing.T) {
		assert.False(t, h.UpdateField(viewstate.NoteDetails{Heading: "Other"}))
		saved, err := h.Save(ctx)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Equal(t, int32(1), repo.inserts.Load())
	})
}

func TestEntryHolder_InvalidDraftNeverPersists(t *testing.T) {
	repo := setupRepo(t)

	rapid.Check(t, func(rt *rapid.T) {
		h := viewstate.NewEntryHolder(repo)
		defer h.Close()

		heading := rapid.StringMatching(`[ \t\n]{0,6}`).Draw(rt, "heading")
		h.UpdateField(viewstate.NoteDetails{Heading: heading, Description: "something"})
		if h.Snapshot().Valid {
			rt.Fatalf("blank heading %q accepted", heading)
		}

		attempts := rapid.IntRange(1, 5).Draw(rt, "attempts")
		for i := 0; i < attempts; i++ {
			saved, err := h.Save(context.Background())
			if err != nil || saved {
				rt.Fatalf("save of invalid draft: saved=%v err=%v", saved, err)
			}
		}
	})
	assert.Equal(t, int32(0), repo.inserts.Load())
}

func TestEntryHolder_Subscribe(t *testing.T) {
	h := viewstate.NewEntryHolder(setupRepo(t))
	defer h.Close()

	sub := h.Subscribe(context.Background())
	first := waitFor(t, sub, func(viewstate.FormState) bool { return true })
	assert.Equal(t, viewstate.Ready, first.Phase)

	h.UpdateField(viewstate.NoteDetails{Heading: "Pen"})
	got := waitFor(t, sub, func(s viewstate.FormState) bool { return s.Valid })
	assert.Equal(t, "Pen", got.Draft.Heading)

	h.Close()
	require.Eventually(t, sub.Closed, time.Second, 5*time.Millisecond)
}

func TestEditHolder_LoadAndSave(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	stored := mustInsert(t, repo, core.Note{Heading: "Pen", Description: "5.0", Color: core.ColorGreen})
	require.Equal(t, int64(1), stored.ID)

	h := viewstate.NewEditHolder(ctx, repo, viewstate.NoteArgs(stored.ID))
	defer h.Close()
	require.NoError(t, h.Await(ctx))

	state := h.Snapshot()
	assert.Equal(t, viewstate.Ready, state.Phase)
	assert.Equal(t, viewstate.FromNote(stored), state.Draft)
	assert.True(t, state.Valid)

	watch, err := repo.NoteStream(ctx, stored.ID)
	require.NoError(t, err)
	defer watch.Close()

	draft := state.Draft
	draft.Heading = "Pencil"
	draft.ID = 99
	h.UpdateField(draft)

	saved, err := h.Save(ctx)
	require.NoError(t, err)
	require.True(t, saved)

	got := waitFor(t, watch, func(n *core.Note) bool { return n != nil && n.Heading == "Pencil" })
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "5.0", got.Description)
	assert.Equal(t, int32(1), repo.updates.Load())

	all, err := repo.AllNotesStream(ctx)
	require.NoError(t, err)
	defer all.Close()
	notes := waitFor(t, all, func([]core.Note) bool { return true })
	assert.Len(t, notes, 1, "an edit never creates a note")
}

func TestEditHolder_InvalidSaveIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	stored := mustInsert(t, repo, core.Note{Heading: "Pen"})

	h := viewstate.NewEditHolder(ctx, repo, viewstate.NoteArgs(stored.ID))
	defer h.Close()
	require.NoError(t, h.Await(ctx))

	h.UpdateField(viewstate.NoteDetails{Heading: "   "})
	saved, err := h.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, viewstate.Ready, h.Snapshot().Phase)
	assert.Equal(t, int32(0), repo.updates.Load())
}

// streamRepo serves NoteStream from a state the test controls.
type streamRepo struct {
	core.Repository
	note *live.State[*core.Note]
}

func (r *streamRepo) NoteStream(ctx context.Context, id int64) (*live.Subscription[*core.Note], error) {
	return r.note.Subscribe(ctx), nil
}

func TestEditHolder_EditsDuringLoadWin(t *testing.T) {
	ctx := context.Background()
	repo := &streamRepo{note: live.NewState[*core.Note](nil)}

	h := viewstate.NewEditHolder(ctx, repo, viewstate.NoteArgs(3))
	defer h.Close()
	assert.Equal(t, viewstate.Loading, h.Snapshot().Phase)

	saved, err := h.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "nothing to save while loading")

	h.UpdateField(viewstate.NoteDetails{Heading: "Typed first"})
	repo.note.Set(&core.Note{ID: 3, Heading: "Stored", Color: core.ColorPink})
	require.NoError(t, h.Await(ctx))

	state := h.Snapshot()
	assert.Equal(t, "Typed first", state.Draft.Heading)
	assert.Equal(t, int64(3), state.Draft.ID)

	intro := h.State().(viewstate.FormHolderState)
	assert.True(t, intro.Edited)
	assert.False(t, intro.Loading)
	assert.Equal(t, "edit-holder", h.ComponentType())
}

func TestEditHolder_CloseBeforeLoad(t *testing.T) {
	repo := &streamRepo{note: live.NewState[*core.Note](nil)}
	h := viewstate.NewEditHolder(context.Background(), repo, viewstate.NoteArgs(3))
	h.Close()

	err := h.Await(context.Background())
	assert.Error(t, err)
}

func TestHolders_RequireNoteID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	assert.Panics(t, func() { viewstate.NewEditHolder(ctx, repo, viewstate.Args{}) })
	assert.Panics(t, func() { viewstate.NewDetailHolder(ctx, repo, nil) })
	assert.Panics(t, func() { viewstate.NewDetailHolder(ctx, repo, viewstate.Args{viewstate.NoteIDArg: "1"}) })
	assert.NotPanics(t, func() {
		viewstate.NewDetailHolder(ctx, repo, viewstate.Args{viewstate.NoteIDArg: 1}).Close()
	})
}
