package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
)

// Registry keeps editing sessions in memory. Sessions idle for longer than the
// TTL are discarded by a background sweep.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	max      int
	opts     Options
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type session struct {
	mu       sync.Mutex
	it       *Interaction
	lastUsed time.Time
}

// NewRegistry starts a registry whose sessions use opts. A non-positive ttl
// disables eviction; a non-positive maxSessions disables the cap.
func NewRegistry(opts Options, ttl time.Duration, maxSessions int) *Registry {
	r := &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		max:      maxSessions,
		opts:     opts,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go r.cleanupExpired(sweepInterval(ttl))
	}
	return r
}

// Create opens a new session. A nil boundary falls back to the registry's
// default. When the registry is full, idle sessions are swept first; if it is
// still full the call fails with an unavailable error.
func (r *Registry) Create(boundary *geom.Rect) (string, State, error) {
	if r.full() {
		r.Sweep()
	}

	opts := r.opts
	if boundary != nil {
		opts.Boundary = boundary
	}
	it := New(opts)
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return "", State{}, apperrors.NewUnavailable("too many editing sessions, try again later").
			WithDetail("limit", r.max)
	}
	r.sessions[id] = &session{it: it, lastUsed: r.now()}
	return id, it.State(), nil
}

func (r *Registry) full() bool {
	return r.max > 0 && r.Len() >= r.max
}

// Do runs fn with exclusive access to the session's interaction.
func (r *Registry) Do(id string, fn func(*Interaction) error) error {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return apperrors.NewNotFound("session", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = r.now()
	return fn(s.it)
}

// Delete discards a session; deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the background sweep.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if !s.mu.TryLock() {
			continue // in use
		}
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.stop:
			return
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	every := ttl / 4
	if every < time.Second {
		every = time.Second
	}
	if every > 5*time.Minute {
		every = 5 * time.Minute
	}
	return every
}
