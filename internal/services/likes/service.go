// Package likes lists accepts the caller has received but not yet answered.
package likes

import (
	"context"
	"fmt"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
)

const (
	defaultIncomingLimit = 50
	maxIncomingLimit     = 200
)

type IncomingStore interface {
	ListIncomingAccepts(ctx context.Context, userID string, limit int) ([]model.IncomingLike, error)
}

type ProfileReader interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]profilesvc.Profile, error)
}

type Service struct {
	incoming IncomingStore
	profiles ProfileReader
}

type IncomingProfile struct {
	Profile profilesvc.Profile
	LikedAt time.Time
}

func NewService(incoming IncomingStore, profiles ProfileReader) *Service {
	return &Service{incoming: incoming, profiles: profiles}
}

// Incoming returns the newest unanswered accepts first. Likers whose profile is gone
// are left out.
func (s *Service) Incoming(ctx context.Context, caller authsvc.Identity, limit int) ([]IncomingProfile, error) {
	if !caller.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	if s.incoming == nil || s.profiles == nil {
		return nil, fmt.Errorf("likes dependencies are not configured")
	}
	if limit <= 0 {
		limit = defaultIncomingLimit
	}
	if limit > maxIncomingLimit {
		limit = maxIncomingLimit
	}

	rows, err := s.incoming.ListIncomingAccepts(ctx, caller.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incoming accepts: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.FromUserID)
	}
	found, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]IncomingProfile, 0, len(rows))
	for _, row := range rows {
		p, ok := found[row.FromUserID]
		if !ok {
			continue
		}
		out = append(out, IncomingProfile{Profile: p, LikedAt: row.LikedAt})
	}
	return out, nil
}
