package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"phonefinder/internal/metrics"
	"phonefinder/internal/model"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired conversations
var ErrSessionNotFound = errors.New("conversation not found")

type session struct {
	mu       sync.Mutex
	state    *model.State
	lastSeen time.Time
	deleted  bool
}

// SessionStore keeps live conversation states in memory. Turns for one
// session are serialized by that session's lock; sessions never share data.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
}

// NewSessionStore creates a store that expires sessions idle for ttl
func NewSessionStore(ttl time.Duration, m *metrics.Metrics) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
	}
}

// Create starts a new conversation. The returned state must only be
// modified inside With.
func (s *SessionStore) Create() *model.State {
	state := model.NewState(uuid.NewString())

	s.mu.Lock()
	s.sessions[state.ID] = &session{state: state, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return state
}

// With runs fn while holding the session's lock
func (s *SessionStore) With(id string, fn func(*model.State) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return ErrSessionNotFound
	}

	err := fn(sess.state)
	sess.lastSeen = s.now()
	return err
}

// Delete ends a conversation
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	sess.deleted = true
	sess.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many.
// Sessions with a turn in progress are left alone.
func (s *SessionStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			sess.deleted = true
			delete(s.sessions, id)
			removed++
		}
		sess.mu.Unlock()
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return removed
}

// Run sweeps expired sessions every interval until ctx is done
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
