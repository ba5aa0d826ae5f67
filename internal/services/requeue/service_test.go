package requeue

import (
	"context"
	"errors"
	"testing"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/memory"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	feedsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/feed"
	matchsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	swipesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/swipes"
)

type world struct {
	store   *memory.Store
	feed    *feedsvc.Service
	swipes  *swipesvc.Service
	requeue *Service
}

func newWorld(t *testing.T) world {
	t.Helper()

	store := memory.New()
	for _, p := range []model.Profile{
		{UserID: "A", Gender: "male", Interests: []string{"Medicine"}},
		{UserID: "B", Gender: "female", Interests: []string{"Medicine", "Art"}},
		{UserID: "C", Gender: "female", Interests: []string{"medicine"}},
		{UserID: "D", Gender: "female", Interests: []string{"medicine"}},
	} {
		if err := store.UpsertProfile(context.Background(), p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	profiles := profilesvc.NewService(profilesvc.Dependencies{Store: store})
	matches := matchsvc.NewService(matchsvc.Dependencies{
		Swipes:        store,
		Conversations: store,
		Messages:      store,
		Profiles:      profiles,
	})
	feed := feedsvc.NewService(feedsvc.Dependencies{
		Profiles: profiles,
		Swipes:   store,
		Sessions: store,
	}, feedsvc.Config{})

	return world{
		store:   store,
		feed:    feed,
		swipes:  swipesvc.NewService(swipesvc.Dependencies{Swipes: store, Profiles: profiles, Matches: matches}),
		requeue: NewService(store, feed, nil),
	}
}

func (w world) decide(t *testing.T, from, to string, decision enums.Decision) swipesvc.Result {
	t.Helper()
	res, err := w.swipes.RecordDecision(context.Background(), authsvc.Identity{UserID: from}, to, decision)
	if err != nil {
		t.Fatalf("%s decides %s on %s: %v", from, decision, to, err)
	}
	return res
}

func feedIDs(t *testing.T, w world, user string) []string {
	t.Helper()
	page, err := w.feed.Page(context.Background(), authsvc.Identity{UserID: user}, "", 50)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	out := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, p.UserID)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestRejectedCandidateReturnsInSecondChance(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	if got := feedIDs(t, w, "A"); !contains(got, "B") {
		t.Fatalf("A should see B, got %v", got)
	}
	if got := feedIDs(t, w, "B"); !contains(got, "A") {
		t.Fatalf("B should see A, got %v", got)
	}

	w.decide(t, "A", "B", enums.DecisionReject)
	if _, err := w.feed.Open(ctx, authsvc.Identity{UserID: "A"}); err != nil {
		t.Fatalf("restart feed: %v", err)
	}
	if got := feedIDs(t, w, "A"); contains(got, "B") {
		t.Fatalf("rejected candidate must leave the discovery feed, got %v", got)
	}

	res, err := w.requeue.RequeueRejected(ctx, authsvc.Identity{UserID: "A"})
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if len(res.CandidateIDs) != 1 || res.CandidateIDs[0] != "B" {
		t.Fatalf("unexpected requeue: %v", res.CandidateIDs)
	}
	if res.Session.Kind != enums.FeedKindSecondChance {
		t.Fatalf("unexpected session kind %q", res.Session.Kind)
	}
	if got := feedIDs(t, w, "A"); len(got) != 1 || got[0] != "B" {
		t.Fatalf("second chance feed: %v", got)
	}

	// B accepts first, then A changes their mind from the second chance feed.
	w.decide(t, "B", "A", enums.DecisionAccept)
	late := w.decide(t, "A", "B", enums.DecisionAccept)
	if !late.MatchCreated || late.Conversation == nil || late.Conversation.ID != "A_B" {
		t.Fatalf("expected late match, got %+v", late)
	}
}

func TestRequeueExcludesReciprocalAcceptsAndConversations(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	// C accepted A, so A's rejection of C is not requeued.
	w.decide(t, "C", "A", enums.DecisionAccept)
	w.decide(t, "A", "C", enums.DecisionReject)

	// A and D matched, then A rejected D: the stale conversation keeps D out.
	w.decide(t, "A", "D", enums.DecisionAccept)
	w.decide(t, "D", "A", enums.DecisionAccept)
	w.decide(t, "A", "D", enums.DecisionReject)
	w.decide(t, "D", "A", enums.DecisionReject)

	w.decide(t, "A", "B", enums.DecisionReject)

	res, err := w.requeue.RequeueRejected(ctx, authsvc.Identity{UserID: "A"})
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if len(res.CandidateIDs) != 1 || res.CandidateIDs[0] != "B" {
		t.Fatalf("unexpected requeue: %v", res.CandidateIDs)
	}
	for _, id := range res.CandidateIDs {
		if _, err := w.store.GetConversation(ctx, "A_"+id); err == nil {
			t.Fatalf("requeued %s despite existing conversation", id)
		}
	}
}

func TestRequeueRequiresIdentity(t *testing.T) {
	w := newWorld(t)

	_, err := w.requeue.RequeueRejected(context.Background(), authsvc.Identity{})
	if !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequeueEmptyStillReplacesFeed(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	res, err := w.requeue.RequeueRejected(ctx, authsvc.Identity{UserID: "A"})
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if res.Session.Size != 0 || len(res.CandidateIDs) != 0 {
		t.Fatalf("expected empty second chance session, got %+v", res)
	}
	if got := feedIDs(t, w, "A"); len(got) != 0 {
		t.Fatalf("expected empty feed, got %v", got)
	}
}
