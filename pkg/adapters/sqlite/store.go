// Package sqlite implements core.Store on an embedded SQLite database.
//
// Writes are serialized through a single connection and a writer mutex.
// After each committed write the store re-runs the live queries whose result
// may have changed; with Config.WatchExternal it also notices writes made by
// other processes to the same database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/live"
	"github.com/aretw0/notepad/pkg/metrics"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS note (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    heading TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT 'white'
);

CREATE INDEX IF NOT EXISTS idx_note_heading ON note(heading);
`

// Config holds the configuration for the SQLite store.
type Config struct {
	Path          string        // database file, or MemoryPath
	Logger        *slog.Logger  // nil discards
	Metrics       *metrics.Metrics
	WatchExternal bool          // refresh live queries on writes from other processes
	BusyTimeout   time.Duration // zero means 5s
	ErrorHandler  func(error)   // receives refresh and watcher failures
}

// Store implements core.Store using SQLite.
type Store struct {
	config Config
	logger *slog.Logger

	db *sql.DB

	// writeMu serializes mutations together with the refresh they trigger.
	writeMu sync.Mutex

	mu             sync.RWMutex
	all            *live.Query[[]core.Note]
	byID           map[int64]*live.Query[*core.Note]
	closed         bool
	watcher        *watchWorker
	watcherActive  atomic.Bool
	lastExternal   *time.Time
	cancelWatchers context.CancelFunc
}

// NewStore creates a store. Nothing is opened until Initialize.
func NewStore(config Config) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config.Path == "" {
		config.Path = MemoryPath
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New(nil)
	}

	s := &Store{
		config: config,
		logger: logger.With("component", "sqlite"),
		byID:   make(map[int64]*live.Query[*core.Note]),
	}
	s.all = live.NewQuery("all-notes", s.loadAll,
		live.WithEqual(core.EqualNotes),
		live.WithIdle[[]core.Note](s.observeSubscribers),
	)
	return s
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.config.Path
}

func (s *Store) inMemory() bool {
	return s.config.Path == MemoryPath
}

// Initialize opens the database, creates the schema and, when configured,
// starts watching for external changes.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.ErrClosed
	}
	if s.db != nil {
		return nil
	}

	if !s.inMemory() {
		if err := os.MkdirAll(filepath.Dir(s.config.Path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", s.config.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: in-memory databases are per connection and it makes
	// every write strictly sequential.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", s.config.BusyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	if s.config.WatchExternal && !s.inMemory() {
		watchCtx, cancel := context.WithCancel(context.Background())
		w := newWatchWorker(s)
		if err := w.Start(watchCtx); err != nil {
			cancel()
			db.Close()
			s.db = nil
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		s.watcher = w
		s.cancelWatchers = cancel
	}

	s.logger.Debug("store initialized", "path", s.config.Path, "watch_external", s.config.WatchExternal)
	return nil
}

// Close stops the watcher, ends every live subscription and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w := s.watcher
	cancel := s.cancelWatchers
	queries := make([]*live.Query[*core.Note], 0, len(s.byID))
	for _, q := range s.byID {
		queries = append(queries, q)
	}
	s.byID = make(map[int64]*live.Query[*core.Note])
	db := s.db
	s.mu.Unlock()

	if w != nil {
		stopCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.Stop(stopCtx); err != nil {
			s.logger.Warn("failed to stop watcher", "error", err)
		}
		done()
	}
	if cancel != nil {
		cancel()
	}

	s.all.Close()
	for _, q := range queries {
		q.Close()
	}

	if db == nil {
		return nil
	}
	return db.Close()
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrClosed
	}
	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

// Insert stores n. A zero ID lets SQLite assign the next id; a taken ID is
// ignored and reported as 0.
func (s *Store) Insert(ctx context.Context, n core.Note) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	color, err := normalizeColor(n.Color)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.observe("insert", time.Now())

	var id any
	if n.ID != 0 {
		id = n.ID
	}
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO note (id, heading, description, color) VALUES (?, ?, ?, ?)`,
		id, n.Heading, n.Description, string(color))
	if err != nil {
		s.count("insert", metrics.OutcomeError)
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		s.count("insert", metrics.OutcomeError)
		return 0, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		s.count("insert", metrics.OutcomeIgnored)
		s.logger.Debug("insert ignored, id already taken", "id", n.ID)
		return 0, nil
	}

	newID, err := res.LastInsertId()
	if err != nil {
		s.count("insert", metrics.OutcomeError)
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	s.count("insert", metrics.OutcomeOK)
	s.logger.Debug("note inserted", "id", newID)

	s.invalidate(ctx, newID, "insert")
	return newID, nil
}

// Update replaces every field but the id of the matching note.
func (s *Store) Update(ctx context.Context, n core.Note) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	color, err := normalizeColor(n.Color)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.observe("update", time.Now())

	res, err := db.ExecContext(ctx,
		`UPDATE note SET heading = ?, description = ?, color = ? WHERE id = ?`,
		n.Heading, n.Description, string(color), n.ID)
	if err != nil {
		s.count("update", metrics.OutcomeError)
		return fmt.Errorf("failed to update note %d: %w", n.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.count("update", metrics.OutcomeIgnored)
		return nil
	}
	s.count("update", metrics.OutcomeOK)
	s.logger.Debug("note updated", "id", n.ID)

	s.invalidate(ctx, n.ID, "update")
	return nil
}

// Delete removes the matching note.
func (s *Store) Delete(ctx context.Context, n core.Note) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.observe("delete", time.Now())

	res, err := db.ExecContext(ctx, `DELETE FROM note WHERE id = ?`, n.ID)
	if err != nil {
		s.count("delete", metrics.OutcomeError)
		return fmt.Errorf("failed to delete note %d: %w", n.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.count("delete", metrics.OutcomeIgnored)
		return nil
	}
	s.count("delete", metrics.OutcomeOK)
	s.logger.Debug("note deleted", "id", n.ID)

	s.invalidate(ctx, n.ID, "delete")
	return nil
}

// Get reads a single note.
func (s *Store) Get(ctx context.Context, id int64) (core.Note, error) {
	db, err := s.conn()
	if err != nil {
		return core.Note{}, err
	}
	return getNote(ctx, db, id)
}

// Note streams the note with id, emitting nil while it does not exist.
// Subscribers of the same id share one live query.
func (s *Store) Note(ctx context.Context, id int64) (*live.Subscription[*core.Note], error) {
	if _, err := s.conn(); err != nil {
		return nil, err
	}

	for {
		q := s.noteQuery(id)
		sub, err := q.Subscribe(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		cur, ok := s.byID[id]
		if !ok {
			// The query went idle while we subscribed; reinstate it.
			s.byID[id] = q
			cur = q
		}
		if cur == q {
			s.observeSubscribersLocked()
			s.mu.Unlock()
			return sub, nil
		}
		s.mu.Unlock()
		sub.Close()
	}
}

func (s *Store) noteQuery(id int64) *live.Query[*core.Note] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.byID[id]; ok {
		return q
	}
	var q *live.Query[*core.Note]
	q = live.NewQuery(fmt.Sprintf("note-%d", id), s.loadOne(id),
		live.WithEqual(core.EqualNote),
		live.WithIdle[*core.Note](func() { s.dropQuery(id, q) }),
	)
	s.byID[id] = q
	return q
}

// AllNotes streams every note ordered by heading.
func (s *Store) AllNotes(ctx context.Context) (*live.Subscription[[]core.Note], error) {
	if _, err := s.conn(); err != nil {
		return nil, err
	}
	sub, err := s.all.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	s.observeSubscribers()
	return sub, nil
}

// Refresh re-runs every live query. The watcher calls it for external
// changes; callers may use it after writing to the database directly.
func (s *Store) Refresh(ctx context.Context, trigger string) {
	s.mu.RLock()
	queries := make([]*live.Query[*core.Note], 0, len(s.byID))
	for _, q := range s.byID {
		queries = append(queries, q)
	}
	s.mu.RUnlock()

	s.refreshQuery(ctx, trigger, s.all.Refresh)
	for _, q := range queries {
		s.refreshQuery(ctx, trigger, q.Refresh)
	}
}

// invalidate refreshes the queries a write to id can affect. The write has
// already committed, so refreshes run even if the caller's ctx is done.
func (s *Store) invalidate(ctx context.Context, id int64, trigger string) {
	ctx = context.WithoutCancel(ctx)

	s.refreshQuery(ctx, trigger, s.all.Refresh)

	s.mu.RLock()
	q, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		s.refreshQuery(ctx, trigger, q.Refresh)
	}
}

func (s *Store) refreshQuery(ctx context.Context, trigger string, refresh func(context.Context) error) {
	s.config.Metrics.Refreshes.WithLabelValues(trigger).Inc()
	if err := refresh(ctx); err != nil {
		s.logger.Error("live query refresh failed", "trigger", trigger, "error", err)
		if s.config.ErrorHandler != nil {
			s.config.ErrorHandler(err)
		}
	}
}

func (s *Store) dropQuery(id int64, q *live.Query[*core.Note]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byID[id]; ok && cur == q && q.Subscribers() == 0 {
		delete(s.byID, id)
	}
	s.observeSubscribersLocked()
}

func (s *Store) loadAll(ctx context.Context) ([]core.Note, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, heading, description, color FROM note ORDER BY heading ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]core.Note, 0)
	for rows.Next() {
		var n core.Note
		var color string
		if err := rows.Scan(&n.ID, &n.Heading, &n.Description, &color); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.Color = core.Color(color)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) loadOne(id int64) live.Loader[*core.Note] {
	return func(ctx context.Context) (*core.Note, error) {
		db, err := s.conn()
		if err != nil {
			return nil, err
		}
		n, err := getNote(ctx, db, id)
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &n, nil
	}
}

func getNote(ctx context.Context, db *sql.DB, id int64) (core.Note, error) {
	var n core.Note
	var color string
	err := db.QueryRowContext(ctx,
		`SELECT id, heading, description, color FROM note WHERE id = ?`, id).
		Scan(&n.ID, &n.Heading, &n.Description, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Note{}, fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to read note %d: %w", id, err)
	}
	n.Color = core.Color(color)
	return n, nil
}

func normalizeColor(c core.Color) (core.Color, error) {
	c = c.OrDefault()
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidColor, string(c))
	}
	return c, nil
}

func (s *Store) count(op, outcome string) {
	s.config.Metrics.Mutations.WithLabelValues(op, outcome).Inc()
}

func (s *Store) observe(op string, start time.Time) {
	s.config.Metrics.MutationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *Store) observeSubscribers() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.observeSubscribersLocked()
}

func (s *Store) observeSubscribersLocked() {
	perNote := 0
	for _, q := range s.byID {
		perNote += q.Subscribers()
	}
	s.config.Metrics.Subscribers.WithLabelValues("all").Set(float64(s.all.Subscribers()))
	s.config.Metrics.Subscribers.WithLabelValues("note").Set(float64(perNote))
}

var _ core.Store = (*Store)(nil)
