// Package requeue offers a second look at previously rejected candidates.
package requeue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
)

type SwipeStore interface {
	ListRejectedWithoutReciprocalAccept(ctx context.Context, userID string) ([]string, error)
}

type FeedReplacer interface {
	Replace(ctx context.Context, caller authsvc.Identity, kind enums.FeedKind, candidateIDs []string) (model.FeedSession, error)
}

type Service struct {
	swipes SwipeStore
	feed   FeedReplacer
	log    *zap.Logger
}

type Result struct {
	Session      model.FeedSession
	CandidateIDs []string
}

func NewService(swipes SwipeStore, feed FeedReplacer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{swipes: swipes, feed: feed, log: log}
}

// RequeueRejected collects candidates the caller rejected who never accepted the
// caller back and installs them as the caller's current feed. The rejections stay on
// record; a new decision on a requeued candidate overwrites them.
func (s *Service) RequeueRejected(ctx context.Context, caller authsvc.Identity) (Result, error) {
	if !caller.Authenticated() {
		return Result{}, errs.ErrUnauthenticated
	}
	if s.swipes == nil || s.feed == nil {
		return Result{}, fmt.Errorf("requeue dependencies are not configured")
	}

	ids, err := s.swipes.ListRejectedWithoutReciprocalAccept(ctx, caller.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("list rejected candidates: %w", err)
	}

	session, err := s.feed.Replace(ctx, caller, enums.FeedKindSecondChance, ids)
	if err != nil {
		return Result{}, err
	}

	s.log.Info("second chance feed opened",
		zap.String("user_id", caller.UserID),
		zap.Int("candidates", session.Size),
	)
	return Result{Session: session, CandidateIDs: ids}, nil
}
