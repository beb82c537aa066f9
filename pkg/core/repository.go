package core

import (
	"context"

	"github.com/aretw0/notepad/pkg/live"
)

// Store defines the contract for the durable note table.
// Adhering to this interface keeps the rest of the module independent of the
// storage engine.
//
// Writes are serialized by the implementation. Every committed write refreshes
// the live streams whose result it changes.
type Store interface {
	// Initialize ensures the underlying storage is ready (schema, files).
	Initialize(ctx context.Context) error

	// Insert stores a new note and returns its id. A zero ID asks the store
	// to assign one. If the ID is already taken the insert is ignored and
	// Insert returns 0 with a nil error.
	Insert(ctx context.Context, n Note) (int64, error)

	// Update replaces the note with the same ID. Absent ids are a no-op.
	Update(ctx context.Context, n Note) error

	// Delete removes the note with the same ID. Absent ids are a no-op.
	Delete(ctx context.Context, n Note) error

	// Get reads a note once. It returns ErrNotFound when absent.
	Get(ctx context.Context, id int64) (Note, error)

	// Note streams the note with the given id; nil means absent.
	Note(ctx context.Context, id int64) (*live.Subscription[*Note], error)

	// AllNotes streams every note ordered by heading.
	AllNotes(ctx context.Context) (*live.Subscription[[]Note], error)
}

// Repository is what view-state holders depend on.
type Repository interface {
	InsertNote(ctx context.Context, n Note) (int64, error)
	UpdateNote(ctx context.Context, n Note) error
	DeleteNote(ctx context.Context, n Note) error
	GetNote(ctx context.Context, id int64) (Note, error)
	NoteStream(ctx context.Context, id int64) (*live.Subscription[*Note], error)
	AllNotesStream(ctx context.Context) (*live.Subscription[[]Note], error)
}
