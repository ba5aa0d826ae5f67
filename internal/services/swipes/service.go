// Package swipes records directional decisions and triggers match evaluation.
package swipes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	matchsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
	ratesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/rate"
)

var ErrUnsupportedDecision = fmt.Errorf("%w: unsupported decision", errs.ErrValidation)

type SwipeStore interface {
	UpsertSwipe(ctx context.Context, swipe model.Swipe) (model.Swipe, error)
}

type ProfileChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type MatchDetector interface {
	EvaluateMutualMatch(ctx context.Context, a, b string) (matchsvc.Outcome, error)
	Invalidate(ctx context.Context, a, b string) (bool, error)
}

type RateLimiter interface {
	Check(ctx context.Context, action, userID string) error
}

type Dependencies struct {
	Swipes      SwipeStore
	Profiles    ProfileChecker
	Matches     MatchDetector
	RateLimiter RateLimiter
	Logger      *zap.Logger
}

type Service struct {
	swipes   SwipeStore
	profiles ProfileChecker
	matches  MatchDetector
	limiter  RateLimiter
	log      *zap.Logger
	now      func() time.Time
}

// Result carries the stored record and, when the pair is mutual, its conversation.
type Result struct {
	Swipe        model.Swipe
	Conversation *model.Conversation
	MatchCreated bool
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		swipes:   deps.Swipes,
		profiles: deps.Profiles,
		matches:  deps.Matches,
		limiter:  deps.RateLimiter,
		log:      log,
		now:      time.Now,
	}
}

// ParseDecision accepts the boundary aliases for accept and reject.
func ParseDecision(raw string) (enums.Decision, error) {
	decision, ok := enums.ParseDecision(raw)
	if !ok {
		return "", ErrUnsupportedDecision
	}
	return decision, nil
}

// RecordDecision upserts caller's decision about targetID. Repeating a decision only
// refreshes its timestamp. An accept runs match evaluation for the pair; a reject
// flags an active conversation of the pair as stale.
func (s *Service) RecordDecision(ctx context.Context, caller authsvc.Identity, targetID string, decision enums.Decision) (Result, error) {
	if !caller.Authenticated() {
		return Result{}, errs.ErrUnauthenticated
	}
	if s.swipes == nil || s.profiles == nil || s.matches == nil {
		return Result{}, fmt.Errorf("swipe dependencies are not configured")
	}
	if decision != enums.DecisionAccept && decision != enums.DecisionReject {
		return Result{}, ErrUnsupportedDecision
	}

	targetID = strings.TrimSpace(targetID)
	if targetID == "" || targetID == caller.UserID || !rules.ValidUserID(targetID) {
		return Result{}, errs.InvalidTarget("cannot decide on %q", targetID)
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, ratesvc.ActionSwipe, caller.UserID); err != nil {
			return Result{}, err
		}
	}

	exists, err := s.profiles.Exists(ctx, targetID)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		return Result{}, errs.InvalidTarget("user %q not found", targetID)
	}

	stored, err := s.swipes.UpsertSwipe(ctx, model.Swipe{
		FromUserID: caller.UserID,
		ToUserID:   targetID,
		Decision:   decision,
		DecidedAt:  s.now().UTC(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("upsert swipe: %w", err)
	}
	result := Result{Swipe: stored}
	s.log.Debug("swipe recorded",
		zap.String("user_id", caller.UserID),
		zap.String("target_id", targetID),
		zap.String("decision", string(decision)),
	)

	if decision == enums.DecisionReject {
		if _, err := s.matches.Invalidate(ctx, caller.UserID, targetID); err != nil {
			return Result{}, err
		}
		return result, nil
	}

	outcome, err := s.matches.EvaluateMutualMatch(ctx, caller.UserID, targetID)
	if err != nil {
		return Result{}, err
	}
	result.Conversation = outcome.Conversation
	result.MatchCreated = outcome.Created
	return result, nil
}
