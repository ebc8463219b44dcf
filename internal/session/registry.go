package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/chispart-landing/internal/schedule"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

var (
	// ErrEmptyID is returned when a session is requested without a page or visitor id.
	ErrEmptyID = errors.New("session: id required")
	// ErrForeignSession is returned when a page id belongs to another visitor.
	ErrForeignSession = errors.New("session: page belongs to another visitor")
)

// Factory builds a fresh session for one page load of a visitor.
type Factory func(id, visitorID string) (*Session, error)

// Observer is told when sessions open and close.
type Observer interface {
	SessionOpened()
	SessionClosed(reason string)
}

// Registry holds the live sessions, one per page load. A visitor with two
// tabs open has two sessions.
type Registry struct {
	factory  Factory
	idleTTL  time.Duration
	clock    schedule.Clock
	observer Observer
	logger   *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. Sessions idle for longer than idleTTL are
// closed by Sweep; a zero TTL disables eviction.
func NewRegistry(factory Factory, idleTTL time.Duration, clock schedule.Clock, observer Observer, logger *logging.Logger) *Registry {
	if clock == nil {
		clock = schedule.Real()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		clock:    clock,
		observer: observer,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session for id, or nil.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// GetOrCreate returns the live session of page load id, creating it for
// visitorID on first use. A live id owned by another visitor is rejected.
func (r *Registry) GetOrCreate(id, visitorID string) (*Session, error) {
	if id == "" || visitorID == "" {
		return nil, ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && !s.Closed() {
		if s.VisitorID != visitorID {
			return nil, ErrForeignSession
		}
		return s, nil
	}
	s, err := r.factory(id, visitorID)
	if err != nil {
		return nil, fmt.Errorf("session: create %s: %w", id, err)
	}
	r.sessions[id] = s
	if r.observer != nil {
		r.observer.SessionOpened()
	}
	r.logger.Debug("session: opened", "session_id", id, "visitor_id", visitorID)
	return s, nil
}

// Remove closes and forgets the session of page load id when visitorID owns it.
func (r *Registry) Remove(id, visitorID, reason string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.VisitorID != visitorID {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, id)
	r.mu.Unlock()
	r.closeSession(s, reason)
	return true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many it closed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		r.closeSession(s, "idle")
	}
	if len(stale) > 0 {
		r.logger.Info("session: swept idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every live session and waits for their queued background jobs.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		r.closeSession(s, "shutdown")
	}
	for _, s := range all {
		s.WaitBackground()
	}
}

func (r *Registry) closeSession(s *Session, reason string) {
	s.Close()
	if r.observer != nil {
		r.observer.SessionClosed(reason)
	}
	r.logger.Debug("session: closed", "session_id", s.ID, "visitor_id", s.VisitorID, "reason", reason)
}
