package memory

import (
	"context"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

// AppendMessage assigns the next seq of an active conversation and clamps createdAt so
// it never goes backwards within the conversation.
func (s *Store) AppendMessage(_ context.Context, msg model.Message) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok || !conv.IsActive() {
		return model.Message{}, errs.ErrNotFound
	}

	log := s.messages[msg.ConversationID]
	if n := len(log); n > 0 && log[n-1].CreatedAt.After(msg.CreatedAt) {
		msg.CreatedAt = log[n-1].CreatedAt
	}
	conv.LastSeq++
	msg.Seq = conv.LastSeq
	msg.Seen = false
	msg.SeenAt = nil

	s.conversations[conv.ID] = conv
	s.messages[conv.ID] = append(log, msg)
	return cloneMessage(msg), nil
}

func (s *Store) ListMessagesAfter(_ context.Context, conversationID string, afterSeq int64, limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[conversationID]
	out := make([]model.Message, 0)
	// seq is 1-based and gap-free, so it doubles as an index.
	start := int(afterSeq)
	if start < 0 {
		start = 0
	}
	for i := start; i < len(log); i++ {
		out = append(out, cloneMessage(log[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetMessage(_ context.Context, conversationID, messageID string) (model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, msg := range s.messages[conversationID] {
		if msg.ID == messageID {
			return cloneMessage(msg), nil
		}
	}
	return model.Message{}, errs.ErrNotFound
}

// MarkMessageSeen flips seen once. A message that is already seen is returned as is.
func (s *Store) MarkMessageSeen(_ context.Context, conversationID, messageID string, at time.Time) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.messages[conversationID]
	for i := range log {
		if log[i].ID != messageID {
			continue
		}
		if !log[i].Seen {
			seenAt := at.UTC()
			log[i].Seen = true
			log[i].SeenAt = &seenAt
		}
		return cloneMessage(log[i]), nil
	}
	return model.Message{}, errs.ErrNotFound
}

// MarkConversationSeen marks every unseen message not sent by readerID, up to and
// including upToSeq when it is positive.
func (s *Store) MarkConversationSeen(_ context.Context, conversationID, readerID string, upToSeq int64, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	seenAt := at.UTC()
	log := s.messages[conversationID]
	for i := range log {
		if upToSeq > 0 && log[i].Seq > upToSeq {
			break
		}
		if log[i].Seen || log[i].SenderID == readerID {
			continue
		}
		ts := seenAt
		log[i].Seen = true
		log[i].SeenAt = &ts
		updated++
	}
	return updated, nil
}

func (s *Store) LastMessage(_ context.Context, conversationID string) (model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[conversationID]
	if len(log) == 0 {
		return model.Message{}, errs.ErrNotFound
	}
	return cloneMessage(log[len(log)-1]), nil
}

func (s *Store) CountUnread(_ context.Context, conversationID, readerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, msg := range s.messages[conversationID] {
		if !msg.Seen && msg.SenderID != readerID {
			count++
		}
	}
	return count, nil
}
