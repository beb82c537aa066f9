package sqlite

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path               string     `json:"path"`
	InMemory           bool       `json:"in_memory"`
	Closed             bool       `json:"closed"`
	AllSubscribers     int        `json:"all_subscribers"`
	WatchedNotes       []int64    `json:"watched_notes,omitempty"`
	WatcherActive      bool       `json:"watcher_active"`
	LastExternalChange *time.Time `json:"last_external_change,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	watched := make([]int64, 0, len(s.byID))
	for id := range s.byID {
		watched = append(watched, id)
	}

	return StoreState{
		Path:               s.config.Path,
		InMemory:           s.inMemory(),
		Closed:             s.closed,
		AllSubscribers:     s.all.Subscribers(),
		WatchedNotes:       watched,
		WatcherActive:      s.watcherActive.Load(),
		LastExternalChange: s.lastExternal,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

// setWatcherActive may run while Initialize holds mu.
func (s *Store) setWatcherActive(active bool) {
	s.watcherActive.Store(active)
}

func (s *Store) recordExternal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastExternal = &now
}
