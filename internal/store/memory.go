// internal/store/memory.go
//
// In-memory registry of live game sessions.
//
// Characteristics:
//   - Stores *session.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Sweep closes and drops sessions nobody has touched for a while, so
//     abandoned games do not keep their timers alive.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/textsnake/internal/session"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("store: session not found")

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete closes and removes a session. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes sessions idle since before cutoff.
	// Returns how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) int

	// Len reports the number of live sessions.
	Len() int

	// CloseAll closes and removes every session.
	CloseAll()
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex                // guards sessions map
	sessions map[string]*session.Session // keyed by Session.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*session.Session)}
}

func (m *memory) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[s.ID()]; ok && old != s {
		old.Close()
	}
	m.sessions[s.ID()] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	var stale []*session.Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
