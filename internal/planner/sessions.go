// internal/planner/sessions.go
package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("planner session not found")

// Session is one client's planner with its map and notice inbox.
type Session struct {
	ID        string
	Planner   *Planner
	Inbox     *Inbox
	CreatedAt time.Time

	lastSeen time.Time
}

// Sessions owns the planners of all connected clients. Idle sessions
// expire after the TTL.
type Sessions struct {
	deps Deps
	opts Options
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates planners sharing deps. Map and Notifier are
// replaced per session.
func NewSessions(deps Deps, opts Options, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = &MemoryStore{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Sessions{
		deps:     deps,
		opts:     opts,
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session.
func (s *Sessions) Create() *Session {
	deps := s.deps
	deps.Map = NewMapView()
	inbox := NewInbox(0)
	deps.Notifier = inbox

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Planner:   New(deps, s.opts),
		Inbox:     inbox,
		CreatedAt: now.UTC(),
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.deps.Logger.Debug("planner session created", zap.String("session_id", sess.ID))
	return sess
}

// Get returns a live session and marks it as used.
func (s *Sessions) Get(id string) (*Session, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = now
	return sess, nil
}

func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Saved lists the itineraries in the shared store.
func (s *Sessions) Saved(ctx context.Context) ([]Itinerary, error) {
	return s.deps.Store.List(ctx)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.deps.Logger.Info("expired planner sessions", zap.Int("count", n))
			}
		}
	}
}
