// Package messages is the per-conversation message log: appends, read state and live
// subscriptions that replay history before following new messages.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	ratesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/rate"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/realtime"
)

const (
	defaultMaxBodyRunes   = 4000
	defaultHistoryBatch   = 200
	defaultHistoryLimit   = 50
	maxHistoryLimit       = 200
	defaultResyncInterval = 5 * time.Second
)

var (
	ErrEmptyBody   = fmt.Errorf("%w: message body is empty", errs.ErrValidation)
	ErrBodyTooLong = fmt.Errorf("%w: message body is too long", errs.ErrValidation)
)

type ConversationReader interface {
	GetConversation(ctx context.Context, id string) (model.Conversation, error)
}

type MessageStore interface {
	AppendMessage(ctx context.Context, msg model.Message) (model.Message, error)
	ListMessagesAfter(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]model.Message, error)
	GetMessage(ctx context.Context, conversationID, messageID string) (model.Message, error)
	MarkMessageSeen(ctx context.Context, conversationID, messageID string, at time.Time) (model.Message, error)
	MarkConversationSeen(ctx context.Context, conversationID, readerID string, upToSeq int64, at time.Time) (int64, error)
}

type RateLimiter interface {
	Check(ctx context.Context, action, userID string) error
}

type Config struct {
	MaxBodyRunes   int
	HistoryBatch   int
	ResyncInterval time.Duration
	Buffer         int
}

type Dependencies struct {
	Conversations ConversationReader
	Messages      MessageStore
	Notifier      realtime.Notifier
	RateLimiter   RateLimiter
	Logger        *zap.Logger
}

type Service struct {
	conversations ConversationReader
	messages      MessageStore
	notifier      realtime.Notifier
	limiter       RateLimiter
	cfg           Config
	log           *zap.Logger
	now           func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxBodyRunes <= 0 {
		cfg.MaxBodyRunes = defaultMaxBodyRunes
	}
	if cfg.HistoryBatch <= 0 {
		cfg.HistoryBatch = defaultHistoryBatch
	}
	if cfg.ResyncInterval <= 0 {
		cfg.ResyncInterval = defaultResyncInterval
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = realtime.DefaultBuffer
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		conversations: deps.Conversations,
		messages:      deps.Messages,
		notifier:      deps.Notifier,
		limiter:       deps.RateLimiter,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

// Append stores a message from caller and publishes it. A failed publish is only
// logged; subscribers pick the message up from the store.
func (s *Service) Append(ctx context.Context, caller authsvc.Identity, conversationID, body string) (model.Message, error) {
	conv, err := s.participant(ctx, caller, conversationID)
	if err != nil {
		return model.Message{}, err
	}
	if !conv.IsActive() {
		return model.Message{}, errs.InvalidTarget("conversation %s is not active", conversationID)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return model.Message{}, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > s.cfg.MaxBodyRunes {
		return model.Message{}, ErrBodyTooLong
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, ratesvc.ActionMessage, caller.UserID); err != nil {
			return model.Message{}, err
		}
	}

	stored, err := s.messages.AppendMessage(ctx, model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       caller.UserID,
		Body:           body,
		CreatedAt:      s.now().UTC(),
	})
	if errors.Is(err, errs.ErrNotFound) {
		return model.Message{}, errs.InvalidTarget("conversation %s is not active", conversationID)
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, stored); err != nil {
			s.log.Warn("publish message failed",
				zap.String("conversation_id", stored.ConversationID),
				zap.Int64("seq", stored.Seq),
				zap.Error(err),
			)
		}
	}
	return stored, nil
}

// History pages through a conversation in seq order. Stale conversations stay
// readable.
func (s *Service) History(ctx context.Context, caller authsvc.Identity, conversationID string, afterSeq int64, limit int) ([]model.Message, error) {
	if _, err := s.participant(ctx, caller, conversationID); err != nil {
		return nil, err
	}
	if afterSeq < 0 {
		afterSeq = 0
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := s.messages.ListMessagesAfter(ctx, conversationID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return rows, nil
}

// MarkSeen flips one message to seen on behalf of its recipient. The sender's own
// messages and messages already seen are returned unchanged.
func (s *Service) MarkSeen(ctx context.Context, caller authsvc.Identity, conversationID, messageID string) (model.Message, error) {
	if _, err := s.participant(ctx, caller, conversationID); err != nil {
		return model.Message{}, err
	}

	msg, err := s.messages.GetMessage(ctx, conversationID, strings.TrimSpace(messageID))
	if errors.Is(err, errs.ErrNotFound) {
		return model.Message{}, errs.InvalidTarget("message %q not found", messageID)
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}
	if msg.SenderID == caller.UserID || msg.Seen {
		return msg, nil
	}

	updated, err := s.messages.MarkMessageSeen(ctx, conversationID, msg.ID, s.now().UTC())
	if err != nil {
		return model.Message{}, fmt.Errorf("mark message seen: %w", err)
	}
	return updated, nil
}

// MarkConversationSeen marks the peer's messages seen up to upToSeq, or all of them
// when upToSeq is not positive. It returns the number of messages changed.
func (s *Service) MarkConversationSeen(ctx context.Context, caller authsvc.Identity, conversationID string, upToSeq int64) (int64, error) {
	if _, err := s.participant(ctx, caller, conversationID); err != nil {
		return 0, err
	}

	updated, err := s.messages.MarkConversationSeen(ctx, conversationID, caller.UserID, upToSeq, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark conversation seen: %w", err)
	}
	return updated, nil
}

func (s *Service) participant(ctx context.Context, caller authsvc.Identity, conversationID string) (model.Conversation, error) {
	if !caller.Authenticated() {
		return model.Conversation{}, errs.ErrUnauthenticated
	}
	if s.conversations == nil || s.messages == nil {
		return model.Conversation{}, fmt.Errorf("message dependencies are not configured")
	}

	conversationID = strings.TrimSpace(conversationID)
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Conversation{}, errs.InvalidTarget("conversation %q not found", conversationID)
	}
	if err != nil {
		return model.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if !conv.HasUser(caller.UserID) {
		return model.Conversation{}, errs.ErrNotParticipant
	}
	return conv, nil
}
