package memory

import (
	"context"
	"sort"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
)

func (s *Store) UpsertSwipe(_ context.Context, swipe model.Swipe) (model.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swipes[swipeKey{from: swipe.FromUserID, to: swipe.ToUserID}] = swipe
	return swipe, nil
}

func (s *Store) GetSwipe(_ context.Context, fromUserID, toUserID string) (model.Swipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	swipe, ok := s.swipes[swipeKey{from: fromUserID, to: toUserID}]
	if !ok {
		return model.Swipe{}, errs.ErrNotFound
	}
	return swipe, nil
}

// ListDecidedTargets returns the subset of targetIDs that fromUserID decided on after
// since. A zero since matches every decision.
func (s *Store) ListDecidedTargets(_ context.Context, fromUserID string, targetIDs []string, since time.Time) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{})
	for _, id := range targetIDs {
		swipe, ok := s.swipes[swipeKey{from: fromUserID, to: id}]
		if !ok {
			continue
		}
		if since.IsZero() || swipe.DecidedAt.After(since) {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// ListRejectedWithoutReciprocalAccept returns targets userID rejected that never
// accepted userID back, still exist, and share no conversation record with userID.
func (s *Store) ListRejectedWithoutReciprocalAccept(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for key, swipe := range s.swipes {
		if key.from != userID || swipe.Decision != enums.DecisionReject {
			continue
		}
		if back, ok := s.swipes[swipeKey{from: key.to, to: userID}]; ok && back.Accepted() {
			continue
		}
		if _, exists := s.profiles[key.to]; !exists {
			continue
		}
		if _, matched := s.conversations[rules.PairID(userID, key.to)]; matched {
			continue
		}
		ids = append(ids, key.to)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListIncomingAccepts returns accepts addressed to userID that userID has not answered.
func (s *Store) ListIncomingAccepts(_ context.Context, userID string, limit int) ([]model.IncomingLike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.IncomingLike, 0)
	for key, swipe := range s.swipes {
		if key.to != userID || !swipe.Accepted() {
			continue
		}
		if _, answered := s.swipes[swipeKey{from: userID, to: key.from}]; answered {
			continue
		}
		if _, exists := s.profiles[key.from]; !exists {
			continue
		}
		out = append(out, model.IncomingLike{FromUserID: key.from, LikedAt: swipe.DecidedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LikedAt.Equal(out[j].LikedAt) {
			return out[i].FromUserID < out[j].FromUserID
		}
		return out[i].LikedAt.After(out[j].LikedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAcceptedPairsWithoutConversation finds mutual accepts with no active
// conversation. Each pair is reported once, lower id first, ordered and strictly after
// the given pair. A zero pair starts from the beginning.
func (s *Store) ListAcceptedPairsWithoutConversation(_ context.Context, after [2]string, limit int) ([][2]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][2]string, 0)
	for key, swipe := range s.swipes {
		if key.from >= key.to || !swipe.Accepted() {
			continue
		}
		if after[0] != "" && (key.from < after[0] || (key.from == after[0] && key.to <= after[1])) {
			continue
		}
		if back, ok := s.swipes[swipeKey{from: key.to, to: key.from}]; !ok || !back.Accepted() {
			continue
		}
		if conv, ok := s.conversations[rules.PairID(key.from, key.to)]; ok && conv.IsActive() {
			continue
		}
		out = append(out, [2]string{key.from, key.to})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] == out[j][0] {
			return out[i][1] < out[j][1]
		}
		return out[i][0] < out[j][0]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
