package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
)

// SessionStore keeps auth sessions for the memory driver.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]authsvc.SessionRecord
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]authsvc.SessionRecord),
		now:      time.Now,
	}
}

func (s *SessionStore) Create(_ context.Context, session authsvc.SessionRecord) error {
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(session.UserID) == "" {
		return authsvc.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SID] = session
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, sid string) (authsvc.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sid]
	if !ok {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, sid)
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) DeleteSession(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
