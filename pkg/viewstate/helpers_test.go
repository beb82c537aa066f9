package viewstate_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/notepad/pkg/adapters/sqlite"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
)

// countingRepo counts mutations reaching the wrapped repository.
type countingRepo struct {
	core.Repository
	inserts   atomic.Int32
	updates   atomic.Int32
	deletes   atomic.Int32
	deleteErr error
}

func (r *countingRepo) InsertNote(ctx context.Context, n core.Note) (int64, error) {
	r.inserts.Add(1)
	return r.Repository.InsertNote(ctx, n)
}

func (r *countingRepo) UpdateNote(ctx context.Context, n core.Note) error {
	r.updates.Add(1)
	return r.Repository.UpdateNote(ctx, n)
}

func (r *countingRepo) DeleteNote(ctx context.Context, n core.Note) error {
	r.deletes.Add(1)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Repository.DeleteNote(ctx, n)
}

// setupRepo returns a counting repository over a fresh in-memory store.
func setupRepo(t *testing.T) *countingRepo {
	t.Helper()

	store := sqlite.NewStore(sqlite.Config{Path: sqlite.MemoryPath})
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	svc := core.NewService(store, nil)
	t.Cleanup(func() { _ = svc.Close() })
	return &countingRepo{Repository: svc}
}

func mustInsert(t *testing.T, repo core.Repository, n core.Note) core.Note {
	t.Helper()
	id, err := repo.InsertNote(context.Background(), n)
	if err != nil {
		t.Fatalf("InsertNote failed: %v", err)
	}
	n.ID = id
	n.Color = n.Color.OrDefault()
	return n
}

// waitFor drains sub until a value satisfies cond.
func waitFor[T any](t *testing.T, sub *live.Subscription[T], cond func(T) bool) T {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-sub.C():
			if !ok {
				t.Fatalf("subscription closed while waiting")
			}
			if cond(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timeout waiting for state")
			var zero T
			return zero
		}
	}
}

func headings(notes []core.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Heading
	}
	return out
}
