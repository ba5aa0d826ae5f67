package likes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/memory"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
)

func TestIncomingListsUnansweredAccepts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	t0 := time.Date(2026, time.February, 14, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"me", "old", "new", "answered", "rejecter"} {
		if err := store.UpsertProfile(ctx, model.Profile{UserID: id, DisplayName: id}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	swipes := []model.Swipe{
		{FromUserID: "old", ToUserID: "me", Decision: enums.DecisionAccept, DecidedAt: t0},
		{FromUserID: "new", ToUserID: "me", Decision: enums.DecisionAccept, DecidedAt: t0.Add(time.Hour)},
		{FromUserID: "answered", ToUserID: "me", Decision: enums.DecisionAccept, DecidedAt: t0},
		{FromUserID: "me", ToUserID: "answered", Decision: enums.DecisionReject, DecidedAt: t0},
		{FromUserID: "rejecter", ToUserID: "me", Decision: enums.DecisionReject, DecidedAt: t0},
		{FromUserID: "ghost", ToUserID: "me", Decision: enums.DecisionAccept, DecidedAt: t0},
	}
	for _, sw := range swipes {
		if _, err := store.UpsertSwipe(ctx, sw); err != nil {
			t.Fatalf("upsert swipe: %v", err)
		}
	}

	svc := NewService(store, profilesvc.NewService(profilesvc.Dependencies{Store: store}))
	got, err := svc.Incoming(ctx, authsvc.Identity{UserID: "me"}, 0)
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two incoming likes, got %d", len(got))
	}
	if got[0].Profile.UserID != "new" || got[1].Profile.UserID != "old" {
		t.Fatalf("unexpected order: %s, %s", got[0].Profile.UserID, got[1].Profile.UserID)
	}
	if !got[0].LikedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("unexpected liked at: %v", got[0].LikedAt)
	}

	if _, err := svc.Incoming(ctx, authsvc.Identity{}, 0); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
