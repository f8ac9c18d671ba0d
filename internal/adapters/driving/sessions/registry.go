// Package sessions keeps the conversations of the HTTP and MCP front ends.
package sessions

import (
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

type sessionEntry struct {
	session  *domain.Session
	lastUsed time.Time
}

// Registry hands out sessions by ID. Idle sessions are evicted lazily.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	newFn    func() *domain.Session
	ttl      time.Duration
	now      func() time.Time
}

// New creates a registry that creates sessions with newFn.
// A non-positive ttl uses DefaultTTL.
func New(newFn func() *domain.Session, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		sessions: make(map[string]*sessionEntry),
		newFn:    newFn,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session with id, creating it when id is empty or unknown.
func (r *Registry) Get(id string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	if e, ok := r.sessions[id]; ok && id != "" {
		e.lastUsed = now
		return e.session
	}

	var s *domain.Session
	if id == "" {
		s = r.newFn()
	} else {
		s = domain.NewSession(id)
	}
	r.sessions[s.ID] = &sessionEntry{session: s, lastUsed: now}
	return s
}

// Lookup returns an existing session.
func (r *Registry) Lookup(id string) (*domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.session, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictLocked(now time.Time) {
	for id, e := range r.sessions {
		if now.Sub(e.lastUsed) > r.ttl {
			delete(r.sessions, id)
		}
	}
}
