package memory

import (
	"context"
	"sync"
	"time"

	"github.com/swiftcourier/courier-api/internal/domains/users/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

type session struct {
	username  string
	expiresAt time.Time
}

// SessionStore is an in-memory SessionStore implementation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]session{}}
}

func (s *SessionStore) Save(_ context.Context, tokenID, username string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenID] = session{username: username, expiresAt: expiresAt}
	return nil
}

func (s *SessionStore) Exists(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[tokenID]
	return ok, nil
}

func (s *SessionStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, sess := range s.sessions {
		if sess.expiresAt.Before(now) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}
