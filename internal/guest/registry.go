// Package guest keeps the data of anonymous guest sessions in memory.
//
// Each session owns a private memory store. Sessions that stay idle longer
// than the registry's TTL are dropped by Sweep, taking their data with them.
package guest

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/storage/memory"
)

// ErrTooManySessions is returned by NewSession when the registry is full.
var ErrTooManySessions = errors.New("too many active guest sessions")

// Registry maps guest session IDs to their stores.
type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	max      int
	now      func() time.Time
	sessions map[string]*session
}

type session struct {
	store    *memory.Store
	lastSeen time.Time
}

// NewRegistry creates a registry whose sessions expire after ttl of inactivity.
// At most maxSessions sessions are live at once; zero means no limit.
func NewRegistry(ttl time.Duration, maxSessions int) *Registry {
	return &Registry{
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// NewSession allocates a session and returns its ID.
func (r *Registry) NewSession() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.sessions) >= r.max {
		return "", ErrTooManySessions
	}
	id := uuid.New().String()
	r.sessions[id] = &session{store: memory.New(), lastSeen: r.now()}
	return id, nil
}

// Store returns the store of a session, creating an empty one on first use.
// Every call counts as activity and postpones expiry.
func (r *Registry) Store(sessionID string) *memory.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{store: memory.New()}
		r.sessions[sessionID] = s
	}
	s.lastSeen = r.now()
	return s.store
}

// Sweep drops sessions idle for longer than the TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
