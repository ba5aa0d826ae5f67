// Package matches turns reciprocal accepts into conversations and lists them.
package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type SwipeReader interface {
	GetSwipe(ctx context.Context, fromUserID, toUserID string) (model.Swipe, error)
}

type ConversationStore interface {
	ActivateConversation(ctx context.Context, conv model.Conversation) (model.Conversation, bool, error)
	MarkConversationStale(ctx context.Context, id string, at time.Time) (bool, error)
	ListActiveConversations(ctx context.Context, userID string, limit int) ([]model.Conversation, error)
}

type MessageSummaryStore interface {
	LastMessage(ctx context.Context, conversationID string) (model.Message, error)
	CountUnread(ctx context.Context, conversationID, readerID string) (int, error)
}

type ProfileReader interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]profilesvc.Profile, error)
}

type Dependencies struct {
	Swipes        SwipeReader
	Conversations ConversationStore
	Messages      MessageSummaryStore
	Profiles      ProfileReader
	Logger        *zap.Logger
}

type Service struct {
	swipes        SwipeReader
	conversations ConversationStore
	messages      MessageSummaryStore
	profiles      ProfileReader
	log           *zap.Logger
	now           func() time.Time
}

// Outcome is the result of one evaluation. Conversation is nil while the pair is not
// mutual; Created is true only for the call that inserted the record.
type Outcome struct {
	Conversation *model.Conversation
	Created      bool
}

type Summary struct {
	Conversation model.Conversation
	PeerID       string
	Peer         *profilesvc.Profile
	LastMessage  *model.Message
	Unread       int
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		swipes:        deps.Swipes,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		profiles:      deps.Profiles,
		log:           log,
		now:           time.Now,
	}
}

// EvaluateMutualMatch reads both directions of the pair and, when both accept, upserts
// the conversation under the canonical pair id. Calls may race from either side; the
// store's insert-if-absent keeps a single record. The pair is re-read after the upsert
// so a concurrent reject never leaves the conversation active.
func (s *Service) EvaluateMutualMatch(ctx context.Context, a, b string) (Outcome, error) {
	if s.swipes == nil || s.conversations == nil {
		return Outcome{}, fmt.Errorf("match dependencies are not configured")
	}
	if !rules.ValidUserID(a) || !rules.ValidUserID(b) || a == b {
		return Outcome{}, errs.InvalidTarget("pair %q/%q", a, b)
	}

	mutual, err := s.mutualAccept(ctx, a, b)
	if err != nil || !mutual {
		return Outcome{}, err
	}

	lo, hi := rules.OrderedPair(a, b)
	id := rules.PairID(lo, hi)
	stored, created, err := s.conversations.ActivateConversation(ctx, model.Conversation{
		ID:        id,
		UserAID:   lo,
		UserBID:   hi,
		Status:    enums.ConversationStatusActive,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("activate conversation: %w", err)
	}

	err = CheckCanonical(stored)
	if err == nil && stored.ID != id {
		err = errs.Invariant("conversation for %s stored under id %q", id, stored.ID)
	}
	if err != nil {
		s.log.Error("conversation invariant violated",
			zap.String("conversation_id", id),
			zap.String("user_id", a),
			zap.String("peer_id", b),
			zap.Error(err),
		)
		return Outcome{}, err
	}

	// A reject recorded between the first read and the activation found nothing to
	// invalidate, so the pair is read again and the record rolled back to stale.
	mutual, err = s.mutualAccept(ctx, a, b)
	if err != nil {
		return Outcome{}, err
	}
	if !mutual {
		if _, err := s.conversations.MarkConversationStale(ctx, id, s.now().UTC()); err != nil {
			return Outcome{}, fmt.Errorf("mark conversation stale: %w", err)
		}
		s.log.Info("conversation activation withdrawn after reject", zap.String("conversation_id", id))
		return Outcome{}, nil
	}

	if created {
		s.log.Info("conversation created",
			zap.String("conversation_id", stored.ID),
			zap.String("user_a_id", lo),
			zap.String("user_b_id", hi),
		)
	}
	return Outcome{Conversation: &stored, Created: created}, nil
}

// Invalidate flags the pair's active conversation as stale. It reports whether a
// record changed.
func (s *Service) Invalidate(ctx context.Context, a, b string) (bool, error) {
	if s.conversations == nil {
		return false, fmt.Errorf("conversation store is nil")
	}
	id := rules.PairID(a, b)
	changed, err := s.conversations.MarkConversationStale(ctx, id, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark conversation stale: %w", err)
	}
	if changed {
		s.log.Info("conversation marked stale", zap.String("conversation_id", id))
	}
	return changed, nil
}

// List returns the caller's active conversations with peer, last message and unread
// count. A peer whose profile disappeared is listed with a nil Peer.
func (s *Service) List(ctx context.Context, caller authsvc.Identity, limit int) ([]Summary, error) {
	if !caller.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	if s.conversations == nil || s.messages == nil || s.profiles == nil {
		return nil, fmt.Errorf("match dependencies are not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.conversations.ListActiveConversations(ctx, caller.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	peerIDs := make([]string, 0, len(rows))
	for _, conv := range rows {
		if peer, ok := conv.Peer(caller.UserID); ok {
			peerIDs = append(peerIDs, peer)
		}
	}
	peers, err := s.profiles.GetMany(ctx, peerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(rows))
	for _, conv := range rows {
		peerID, ok := conv.Peer(caller.UserID)
		if !ok {
			continue
		}
		item := Summary{Conversation: conv, PeerID: peerID}
		if p, ok := peers[peerID]; ok {
			item.Peer = &p
		}

		last, err := s.messages.LastMessage(ctx, conv.ID)
		switch {
		case err == nil:
			item.LastMessage = &last
		case !errors.Is(err, errs.ErrNotFound):
			return nil, fmt.Errorf("load last message: %w", err)
		}

		item.Unread, err = s.messages.CountUnread(ctx, conv.ID, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("count unread: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

// CheckCanonical verifies that a stored conversation's id is the canonical pair id of
// its participants.
func CheckCanonical(conv model.Conversation) error {
	lo, hi, ok := rules.SplitPairID(conv.ID)
	if !ok {
		return errs.Invariant("conversation id %q is not a canonical pair id", conv.ID)
	}
	if conv.UserAID != lo || conv.UserBID != hi {
		return errs.Invariant("conversation %s has participants %s/%s", conv.ID, conv.UserAID, conv.UserBID)
	}
	return nil
}

// MutualAccept reports whether both directions of the pair are accepts.
func (s *Service) MutualAccept(ctx context.Context, a, b string) (bool, error) {
	if s.swipes == nil {
		return false, fmt.Errorf("swipe store is nil")
	}
	return s.mutualAccept(ctx, a, b)
}

func (s *Service) mutualAccept(ctx context.Context, a, b string) (bool, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		swipe, err := s.swipes.GetSwipe(ctx, pair[0], pair[1])
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("load swipe %s->%s: %w", pair[0], pair[1], err)
		}
		if !swipe.Accepted() {
			return false, nil
		}
	}
	return true, nil
}
