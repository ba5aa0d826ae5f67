package memory

import (
	"context"
	"sort"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
)

func (s *Store) UpsertProfile(_ context.Context, profile model.Profile) error {
	if !rules.ValidUserID(profile.UserID) {
		return errs.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, errs.ErrNotFound
	}
	return cloneProfile(profile), nil
}

func (s *Store) ListProfiles(_ context.Context, userIDs []string) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := s.profiles[id]; ok {
			out = append(out, cloneProfile(profile))
		}
	}
	return out, nil
}

// ScanUndecided pages through profiles other than requesterID that requesterID has
// not decided on, ordered by id and starting after afterID.
func (s *Store) ScanUndecided(_ context.Context, requesterID, afterID string, limit int) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id := range s.profiles {
		if id == requesterID || id <= afterID {
			continue
		}
		if _, decided := s.swipes[swipeKey{from: requesterID, to: id}]; decided {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneProfile(s.profiles[id]))
	}
	return out, nil
}
