// Package profiles is the read-only adapter over user documents. Every profile leaving
// this package has a canonical gender, normalized interests and a calendar birth date.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	ListProfiles(ctx context.Context, userIDs []string) ([]model.Profile, error)
	ScanUndecided(ctx context.Context, requesterID, afterID string, limit int) ([]model.Profile, error)
}

type PhotoSigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// Profile is a normalized profile plus fields derived at read time.
type Profile struct {
	model.Profile
	Age int
}

type Service struct {
	store  ProfileStore
	signer PhotoSigner
	log    *zap.Logger
	now    func() time.Time
}

type Dependencies struct {
	Store  ProfileStore
	Signer PhotoSigner
	Logger *zap.Logger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  deps.Store,
		signer: deps.Signer,
		log:    log,
		now:    time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if s.store == nil {
		return Profile{}, fmt.Errorf("profile store is nil")
	}
	if !rules.ValidUserID(userID) {
		return Profile{}, ErrProfileNotFound
	}

	raw, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return s.Normalize(raw), nil
}

func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetMany returns the profiles that exist, keyed by id.
func (s *Service) GetMany(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	if s.store == nil {
		return nil, fmt.Errorf("profile store is nil")
	}
	out := make(map[string]Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := s.store.ListProfiles(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	for _, raw := range rows {
		p := s.Normalize(raw)
		out[p.UserID] = p
	}
	return out, nil
}

func (s *Service) ScanUndecided(ctx context.Context, requesterID, afterID string, limit int) ([]Profile, error) {
	if s.store == nil {
		return nil, fmt.Errorf("profile store is nil")
	}

	rows, err := s.store.ScanUndecided(ctx, requesterID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan undecided profiles: %w", err)
	}
	out := make([]Profile, 0, len(rows))
	for _, raw := range rows {
		out = append(out, s.Normalize(raw))
	}
	return out, nil
}

// Normalize canonicalizes a stored document. Missing optional fields become empty
// values rather than errors.
func (s *Service) Normalize(raw model.Profile) Profile {
	p := model.Profile{
		UserID:      raw.UserID,
		DisplayName: strings.TrimSpace(raw.DisplayName),
		Gender:      enums.ParseGender(string(raw.Gender)),
		Interests:   rules.NormalizeInterests(raw.Interests),
		OpenPool:    raw.OpenPool,
		Photos:      make([]string, 0, len(raw.Photos)),
	}
	for _, photo := range raw.Photos {
		if photo = strings.TrimSpace(photo); photo != "" {
			p.Photos = append(p.Photos, photo)
		}
	}

	age := 0
	if raw.Birthdate != nil && !raw.Birthdate.IsZero() {
		date := rules.CalendarDate(*raw.Birthdate)
		p.Birthdate = &date
		age = rules.AgeAt(date, s.now())
	}

	return Profile{Profile: p, Age: age}
}

// PhotoURLs presigns stored object keys. Absolute URLs pass through untouched, and a
// key that fails to sign is skipped.
func (s *Service) PhotoURLs(ctx context.Context, p Profile) []string {
	out := make([]string, 0, len(p.Photos))
	for _, photo := range p.Photos {
		if strings.HasPrefix(photo, "https://") || strings.HasPrefix(photo, "http://") || s.signer == nil {
			out = append(out, photo)
			continue
		}
		signed, err := s.signer.PresignGet(ctx, photo)
		if err != nil {
			s.log.Warn("presign profile photo failed",
				zap.String("user_id", p.UserID),
				zap.String("photo_key", photo),
				zap.Error(err),
			)
			continue
		}
		out = append(out, signed)
	}
	return out
}
