package memory

import (
	"context"
	"sort"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

// ActivateConversation inserts conv if its id is unused, reactivates a stale record,
// and otherwise returns the stored record untouched. created reports an insert.
func (s *Store) ActivateConversation(_ context.Context, conv model.Conversation) (model.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.conversations[conv.ID]
	if !ok {
		conv.Status = enums.ConversationStatusActive
		conv.StaleAt = nil
		s.conversations[conv.ID] = cloneConversation(conv)
		return cloneConversation(conv), true, nil
	}
	if existing.Status != enums.ConversationStatusActive {
		existing.Status = enums.ConversationStatusActive
		existing.StaleAt = nil
		s.conversations[conv.ID] = existing
	}
	return cloneConversation(existing), false, nil
}

func (s *Store) GetConversation(_ context.Context, id string) (model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return model.Conversation{}, errs.ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (s *Store) MarkConversationStale(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok || conv.Status != enums.ConversationStatusActive {
		return false, nil
	}
	staleAt := at.UTC()
	conv.Status = enums.ConversationStatusStale
	conv.StaleAt = &staleAt
	s.conversations[id] = conv
	return true, nil
}

// ListActiveConversations returns userID's active conversations, newest activity first.
func (s *Store) ListActiveConversations(_ context.Context, userID string, limit int) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.IsActive() && conv.HasUser(userID) {
			out = append(out, cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := s.lastActivityLocked(out[i]), s.lastActivityLocked(out[j])
		if li.Equal(lj) {
			return out[i].ID < out[j].ID
		}
		return li.After(lj)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ScanActiveConversations pages through active conversations ordered by id.
func (s *Store) ScanActiveConversations(_ context.Context, afterID string, limit int) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, 0)
	for id, conv := range s.conversations {
		if id > afterID && conv.IsActive() {
			out = append(out, cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) lastActivityLocked(conv model.Conversation) time.Time {
	msgs := s.messages[conv.ID]
	if len(msgs) == 0 {
		return conv.CreatedAt
	}
	return msgs[len(msgs)-1].CreatedAt
}
