package memory

import (
	"context"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

// SaveFeedSession stores the snapshot and makes it the user's current session. The
// previous session is dropped.
func (s *Store) SaveFeedSession(_ context.Context, session model.FeedSession, candidateIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.currentFeed[session.UserID]; ok {
		delete(s.feedSessions, prev)
	}
	session.Size = len(candidateIDs)
	s.feedSessions[session.ID] = feedSessionEntry{session: session, ids: cloneStrings(candidateIDs)}
	s.currentFeed[session.UserID] = session.ID
	return nil
}

func (s *Store) CurrentFeedSession(_ context.Context, userID string) (model.FeedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.currentFeed[userID]
	if !ok {
		return model.FeedSession{}, errs.ErrNotFound
	}
	entry, ok := s.feedSessions[id]
	if !ok || !s.now().Before(entry.session.ExpiresAt) {
		delete(s.feedSessions, id)
		delete(s.currentFeed, userID)
		return model.FeedSession{}, errs.ErrNotFound
	}
	return entry.session, nil
}

func (s *Store) FeedSessionRange(_ context.Context, sessionID string, offset, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.feedSessions[sessionID]
	if !ok || !s.now().Before(entry.session.ExpiresAt) {
		return nil, errs.ErrNotFound
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entry.ids) {
		return []string{}, nil
	}
	end := len(entry.ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return cloneStrings(entry.ids[offset:end]), nil
}
