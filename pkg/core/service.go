package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/notepad/pkg/live"
)

// Service is the Repository handed to view-state holders. It forwards every
// call to the Store unchanged; failures are logged and returned, never
// retried or swallowed.
type Service struct {
	store  Store
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewService creates a new Service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger}
}

// InsertNote stores a new note and returns the id the store assigned.
// A conflicting id is ignored by the store and yields 0.
func (s *Service) InsertNote(ctx context.Context, n Note) (int64, error) {
	id, err := s.store.Insert(ctx, n)
	if err != nil {
		return 0, s.fail("insert note", err, "heading", n.Heading)
	}
	return id, nil
}

// UpdateNote replaces the note matching n.ID.
func (s *Service) UpdateNote(ctx context.Context, n Note) error {
	if err := s.store.Update(ctx, n); err != nil {
		return s.fail("update note", err, "id", n.ID)
	}
	return nil
}

// DeleteNote removes the note matching n.ID.
func (s *Service) DeleteNote(ctx context.Context, n Note) error {
	if err := s.store.Delete(ctx, n); err != nil {
		return s.fail("delete note", err, "id", n.ID)
	}
	return nil
}

// GetNote reads a note once.
func (s *Service) GetNote(ctx context.Context, id int64) (Note, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Note{}, err
		}
		return Note{}, s.fail("get note", err, "id", id)
	}
	return n, nil
}

// NoteStream observes a single note.
func (s *Service) NoteStream(ctx context.Context, id int64) (*live.Subscription[*Note], error) {
	sub, err := s.store.Note(ctx, id)
	if err != nil {
		return nil, s.fail("watch note", err, "id", id)
	}
	return sub, nil
}

// AllNotesStream observes every note ordered by heading.
func (s *Service) AllNotesStream(ctx context.Context) (*live.Subscription[[]Note], error) {
	sub, err := s.store.AllNotes(ctx)
	if err != nil {
		return nil, s.fail("watch notes", err)
	}
	return sub, nil
}

// Close releases the store when it holds resources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) fail(op string, err error, attrs ...any) error {
	s.logger.Warn(op+" failed", append(attrs, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}

var _ Repository = (*Service)(nil)
