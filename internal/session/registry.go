package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry maps browser sessions to controllers and evicts idle ones.
type Registry struct {
	ttl           time.Duration
	newController func() *Controller
	now           func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

func NewRegistry(ttl time.Duration, newController func() *Controller) *Registry {
	return &Registry{
		ttl:           ttl,
		newController: newController,
		now:           time.Now,
		sessions:      make(map[uuid.UUID]*entry),
	}
}

// Get returns the controller for id and marks the session as used.
func (r *Registry) Get(id uuid.UUID) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.controller, true
}

// Create starts a new session.
func (r *Registry) Create() (uuid.UUID, *Controller) {
	id := uuid.New()
	c := r.newController()
	r.mu.Lock()
	r.sessions[id] = &entry{controller: c, lastSeen: r.now()}
	r.mu.Unlock()
	return id, c
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
