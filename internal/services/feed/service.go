// Package feed builds candidate snapshots and pages through them. A snapshot is taken
// when a session opens; candidates decided later are skipped when a page is read.
package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
)

const (
	defaultPageSize      = 20
	maxPageSize          = 50
	defaultScanBatch     = 200
	defaultMaxCandidates = 500
	defaultSessionTTL    = 30 * time.Minute
)

var (
	ErrInvalidCursor  = fmt.Errorf("%w: invalid cursor", errs.ErrValidation)
	ErrSessionExpired = errors.New("feed session expired")
)

type ProfileReader interface {
	Get(ctx context.Context, userID string) (profilesvc.Profile, error)
	GetMany(ctx context.Context, userIDs []string) (map[string]profilesvc.Profile, error)
	ScanUndecided(ctx context.Context, requesterID, afterID string, limit int) ([]profilesvc.Profile, error)
}

type SwipeStore interface {
	ListDecidedTargets(ctx context.Context, fromUserID string, targetIDs []string, since time.Time) (map[string]struct{}, error)
}

type SessionStore interface {
	SaveFeedSession(ctx context.Context, session model.FeedSession, candidateIDs []string) error
	CurrentFeedSession(ctx context.Context, userID string) (model.FeedSession, error)
	FeedSessionRange(ctx context.Context, sessionID string, offset, limit int) ([]string, error)
}

type Config struct {
	SessionTTL      time.Duration
	MaxCandidates   int
	ScanBatch       int
	DefaultPageSize int
	MaxPageSize     int
}

type Dependencies struct {
	Profiles ProfileReader
	Swipes   SwipeStore
	Sessions SessionStore
	Logger   *zap.Logger
}

type Service struct {
	profiles ProfileReader
	swipes   SwipeStore
	sessions SessionStore
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

type Page struct {
	Session    model.FeedSession
	Items      []profilesvc.Profile
	NextCursor string
}

type pageCursor struct {
	SessionID string `json:"s"`
	Offset    int    `json:"o"`
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	if cfg.ScanBatch <= 0 {
		cfg.ScanBatch = defaultScanBatch
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = maxPageSize
	}
	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = min(defaultPageSize, cfg.MaxPageSize)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		profiles: deps.Profiles,
		swipes:   deps.Swipes,
		sessions: deps.Sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Open snapshots the caller's discoverable candidates into a new session, replacing
// the current one. A caller without a profile or interests gets an empty session.
func (s *Service) Open(ctx context.Context, caller authsvc.Identity) (model.FeedSession, error) {
	if !caller.Authenticated() {
		return model.FeedSession{}, errs.ErrUnauthenticated
	}
	if err := s.ready(); err != nil {
		return model.FeedSession{}, err
	}

	// Decisions made while the scan runs must count as later than the snapshot.
	snapshotAt := s.now().UTC()
	ids, err := s.collectCandidates(ctx, caller.UserID)
	if err != nil {
		return model.FeedSession{}, err
	}
	return s.save(ctx, caller.UserID, enums.FeedKindDiscovery, ids, snapshotAt)
}

// Replace installs an explicit ordered candidate list as the caller's current session.
func (s *Service) Replace(ctx context.Context, caller authsvc.Identity, kind enums.FeedKind, candidateIDs []string) (model.FeedSession, error) {
	if !caller.Authenticated() {
		return model.FeedSession{}, errs.ErrUnauthenticated
	}
	if err := s.ready(); err != nil {
		return model.FeedSession{}, err
	}
	snapshotAt := s.now().UTC()

	ids := make([]string, 0, len(candidateIDs))
	seen := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == caller.UserID || !rules.ValidUserID(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > s.cfg.MaxCandidates {
		ids = ids[:s.cfg.MaxCandidates]
	}
	return s.save(ctx, caller.UserID, kind, ids, snapshotAt)
}

// Page reads candidates from the current session. An empty cursor continues the
// current session from the start, opening one when none is live; a cursor from a
// replaced or expired session yields ErrSessionExpired.
func (s *Service) Page(ctx context.Context, caller authsvc.Identity, cursor string, limit int) (Page, error) {
	if !caller.Authenticated() {
		return Page{}, errs.ErrUnauthenticated
	}
	if err := s.ready(); err != nil {
		return Page{}, err
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	decoded, hasCursor, err := decodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	session, err := s.sessions.CurrentFeedSession(ctx, caller.UserID)
	switch {
	case errors.Is(err, errs.ErrNotFound) && hasCursor:
		return Page{}, ErrSessionExpired
	case errors.Is(err, errs.ErrNotFound):
		session, err = s.Open(ctx, caller)
		if err != nil {
			return Page{}, err
		}
	case err != nil:
		return Page{}, fmt.Errorf("load feed session: %w", err)
	}
	if hasCursor && decoded.SessionID != session.ID {
		return Page{}, ErrSessionExpired
	}

	items, next, err := s.readFrom(ctx, caller.UserID, session, decoded.Offset, limit)
	if err != nil {
		return Page{}, err
	}

	page := Page{Session: session, Items: items}
	if next < session.Size {
		page.NextCursor, err = encodeCursor(pageCursor{SessionID: session.ID, Offset: next})
		if err != nil {
			return Page{}, err
		}
	}
	return page, nil
}

// Candidates opens a fresh session and yields every live candidate in snapshot order.
// Ranging again restarts from a new snapshot.
func (s *Service) Candidates(ctx context.Context, caller authsvc.Identity) iter.Seq2[profilesvc.Profile, error] {
	return func(yield func(profilesvc.Profile, error) bool) {
		session, err := s.Open(ctx, caller)
		if err != nil {
			yield(profilesvc.Profile{}, err)
			return
		}

		offset := 0
		for offset < session.Size {
			items, next, err := s.readFrom(ctx, caller.UserID, session, offset, s.cfg.DefaultPageSize)
			if err != nil {
				yield(profilesvc.Profile{}, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if next <= offset {
				return
			}
			offset = next
		}
	}
}

func (s *Service) ready() error {
	if s.profiles == nil || s.swipes == nil || s.sessions == nil {
		return fmt.Errorf("feed dependencies are not configured")
	}
	return nil
}

func (s *Service) collectCandidates(ctx context.Context, userID string) ([]string, error) {
	requester, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, profilesvc.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !rules.CanDiscover(requester.Profile) {
		return nil, nil
	}

	ids := make([]string, 0, s.cfg.ScanBatch)
	afterID := ""
	for len(ids) < s.cfg.MaxCandidates {
		batch, err := s.profiles.ScanUndecided(ctx, userID, afterID, s.cfg.ScanBatch)
		if err != nil {
			return nil, err
		}
		for _, candidate := range batch {
			if rules.Discoverable(requester.Profile, candidate.Profile) {
				ids = append(ids, candidate.UserID)
				if len(ids) == s.cfg.MaxCandidates {
					break
				}
			}
		}
		if len(batch) < s.cfg.ScanBatch {
			break
		}
		afterID = batch[len(batch)-1].UserID
	}
	return ids, nil
}

func (s *Service) save(ctx context.Context, userID string, kind enums.FeedKind, ids []string, now time.Time) (model.FeedSession, error) {
	session := model.FeedSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Size:      len(ids),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.SaveFeedSession(ctx, session, ids); err != nil {
		return model.FeedSession{}, fmt.Errorf("save feed session: %w", err)
	}

	s.log.Debug("feed session opened",
		zap.String("user_id", userID),
		zap.String("session_id", session.ID),
		zap.String("kind", string(kind)),
		zap.Int("size", session.Size),
	)
	return session, nil
}

// readFrom collects up to limit live candidates starting at offset and returns the
// offset just past the last snapshot entry it inspected.
func (s *Service) readFrom(ctx context.Context, userID string, session model.FeedSession, offset, limit int) ([]profilesvc.Profile, int, error) {
	items := make([]profilesvc.Profile, 0, limit)
	for len(items) < limit && offset < session.Size {
		ids, err := s.sessions.FeedSessionRange(ctx, session.ID, offset, limit-len(items))
		if errors.Is(err, errs.ErrNotFound) {
			return nil, offset, ErrSessionExpired
		}
		if err != nil {
			return nil, offset, fmt.Errorf("read feed session: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		offset += len(ids)

		decided, err := s.swipes.ListDecidedTargets(ctx, userID, ids, session.CreatedAt)
		if err != nil {
			return nil, offset, fmt.Errorf("list decided targets: %w", err)
		}
		live := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := decided[id]; !ok {
				live = append(live, id)
			}
		}

		found, err := s.profiles.GetMany(ctx, live)
		if err != nil {
			return nil, offset, err
		}
		for _, id := range live {
			if p, ok := found[id]; ok {
				items = append(items, p)
			}
		}
	}
	return items, offset, nil
}

func decodeCursor(raw string) (pageCursor, bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return pageCursor{}, false, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}

	var cursor pageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}
	if cursor.SessionID == "" || cursor.Offset < 0 {
		return pageCursor{}, false, ErrInvalidCursor
	}

	return cursor, true, nil
}

func encodeCursor(cursor pageCursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("marshal feed cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}
