package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/memory"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	feedsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/feed"
	likessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/likes"
	matchessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
	messagesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/messages"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	ratesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/rate"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/realtime"
	requeuesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/requeue"
	swipesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/swipes"
)

type testEnv struct {
	store    *memory.Store
	messages *messagesvc.Service
	router   chi.Router
}

func newTestEnv(t *testing.T, limiter *ratesvc.Limiter) *testEnv {
	t.Helper()

	store := memory.New()
	for _, p := range []model.Profile{
		{UserID: "ana", DisplayName: "Ana", Gender: "female", Interests: []string{"art", "medicine"}},
		{UserID: "bob", DisplayName: "Bob", Gender: "male", Interests: []string{"art"}},
		{UserID: "cid", DisplayName: "Cid", Gender: "male", Interests: []string{"medicine"}},
	} {
		if err := store.UpsertProfile(context.Background(), p); err != nil {
			t.Fatalf("seed profile %s: %v", p.UserID, err)
		}
	}

	hub := realtime.NewHub(16, nil)
	t.Cleanup(hub.Close)

	profiles := profilesvc.NewService(profilesvc.Dependencies{Store: store})
	matches := matchessvc.NewService(matchessvc.Dependencies{
		Swipes:        store,
		Conversations: store,
		Messages:      store,
		Profiles:      profiles,
	})
	swipeDeps := swipesvc.Dependencies{
		Swipes:   store,
		Profiles: profiles,
		Matches:  matches,
	}
	if limiter != nil {
		swipeDeps.RateLimiter = limiter
	}
	feed := feedsvc.NewService(feedsvc.Dependencies{
		Profiles: profiles,
		Swipes:   store,
		Sessions: store,
	}, feedsvc.Config{})
	messages := messagesvc.NewService(messagesvc.Dependencies{
		Conversations: store,
		Messages:      store,
		Notifier:      hub,
	}, messagesvc.Config{})

	feedHandler := NewFeedHandler(feed, requeuesvc.NewService(store, feed, nil), profiles)
	swipeHandler := NewSwipeHandler(swipesvc.NewService(swipeDeps))
	likesHandler := NewLikesHandler(likessvc.NewService(store, profiles), profiles)
	conversationsHandler := NewConversationsHandler(matches, messages, profiles)
	streamHandler := NewStreamHandler(messages, nil)

	r := chi.NewRouter()
	r.Use(testIdentity)
	r.Get("/v1/feed", feedHandler.Handle)
	r.Post("/v1/feed/restart", feedHandler.Restart)
	r.Post("/v1/feed/second-chance", feedHandler.SecondChance)
	r.Post("/v1/swipes", swipeHandler.Handle)
	r.Get("/v1/likes/incoming", likesHandler.Incoming)
	r.Get("/v1/conversations", conversationsHandler.List)
	r.Get("/v1/conversations/{conversationID}/messages", conversationsHandler.History)
	r.Post("/v1/conversations/{conversationID}/messages", conversationsHandler.Send)
	r.Post("/v1/conversations/{conversationID}/messages/{messageID}/seen", conversationsHandler.MarkSeen)
	r.Post("/v1/conversations/{conversationID}/seen", conversationsHandler.MarkConversationSeen)
	r.Get("/v1/conversations/{conversationID}/stream", streamHandler.Handle)

	return &testEnv{store: store, messages: messages, router: r}
}

// testIdentity stands in for the bearer middleware: the caller comes from X-User or
// the user query parameter.
func testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-User")
		if user == "" {
			user = r.URL.Query().Get("user")
		}
		if user != "" {
			r = r.WithContext(authsvc.WithIdentity(r.Context(), authsvc.Identity{UserID: user, SID: "sid-" + user}))
		}
		next.ServeHTTP(w, r)
	})
}

func (e *testEnv) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) match(t *testing.T, a, b string) string {
	t.Helper()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		rec := e.do(t, pair[0], http.MethodPost, "/v1/swipes", map[string]string{"target_id": pair[1], "decision": "accept"})
		if rec.Code != http.StatusOK {
			t.Fatalf("swipe %s->%s: %d %s", pair[0], pair[1], rec.Code, rec.Body.String())
		}
	}
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + "_" + hi
}

func TestFeedHandlerPagesAndRejectsStaleCursor(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "ana", http.MethodGet, "/v1/feed?limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var first struct {
		Session struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
			Size int    `json:"size"`
		} `json:"session"`
		Items []struct {
			UserID    string   `json:"user_id"`
			PhotoURLs []string `json:"photo_urls"`
		} `json:"items"`
		NextCursor string `json:"next_cursor"`
	}
	decodeBody(t, rec, &first)
	if first.Session.Size != 2 || len(first.Items) != 1 || first.NextCursor == "" {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if first.Items[0].PhotoURLs == nil {
		t.Fatalf("photo_urls must be an array")
	}

	rec = env.do(t, "ana", http.MethodGet, "/v1/feed?limit=1&cursor="+first.NextCursor, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second page: %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, "ana", http.MethodPost, "/v1/feed/restart", nil); rec.Code != http.StatusOK {
		t.Fatalf("restart: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "ana", http.MethodGet, "/v1/feed?cursor="+first.NextCursor, nil)
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 for a replaced session, got %d", rec.Code)
	}

	rec = env.do(t, "ana", http.MethodGet, "/v1/feed?cursor=!!!", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed cursor, got %d", rec.Code)
	}
}

func TestFeedHandlerRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "", http.MethodGet, "/v1/feed", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestSecondChanceRequeuesRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "ana", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "bob", "decision": "reject"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "ana", http.MethodPost, "/v1/feed/second-chance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second chance: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Session struct {
			Kind string `json:"kind"`
			Size int    `json:"size"`
		} `json:"session"`
	}
	decodeBody(t, rec, &payload)
	if payload.Session.Kind != "second_chance" || payload.Session.Size != 1 {
		t.Fatalf("unexpected session: %+v", payload.Session)
	}

	rec = env.do(t, "ana", http.MethodGet, "/v1/feed", nil)
	var page struct {
		Items []struct {
			UserID string `json:"user_id"`
		} `json:"items"`
	}
	decodeBody(t, rec, &page)
	if len(page.Items) != 1 || page.Items[0].UserID != "bob" {
		t.Fatalf("expected bob in the second-chance feed, got %+v", page.Items)
	}
}

func TestSwipeHandlerValidationAndMatch(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		name string
		body any
		want int
	}{
		{name: "missing fields", body: map[string]string{"target_id": "bob"}, want: http.StatusBadRequest},
		{name: "unknown field", body: map[string]string{"target_id": "bob", "decision": "accept", "extra": "1"}, want: http.StatusBadRequest},
		{name: "bad decision", body: map[string]string{"target_id": "bob", "decision": "maybe"}, want: http.StatusBadRequest},
		{name: "self", body: map[string]string{"target_id": "ana", "decision": "accept"}, want: http.StatusNotFound},
		{name: "unknown target", body: map[string]string{"target_id": "zed", "decision": "accept"}, want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, "ana", http.MethodPost, "/v1/swipes", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("unexpected status: got %d want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	rec := env.do(t, "ana", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "bob", "decision": "accept"})
	var first struct {
		MatchCreated bool `json:"match_created"`
	}
	decodeBody(t, rec, &first)
	if first.MatchCreated {
		t.Fatalf("one-sided accept must not create a match")
	}

	rec = env.do(t, "bob", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "ana", "decision": "ACCEPT"})
	var second struct {
		Decision       string `json:"decision"`
		MatchCreated   bool   `json:"match_created"`
		ConversationID string `json:"conversation_id"`
	}
	decodeBody(t, rec, &second)
	if !second.MatchCreated || second.ConversationID != "ana_bob" || second.Decision != "accept" {
		t.Fatalf("unexpected match response: %+v", second)
	}
}

func TestSwipeHandlerReturnsTooFast(t *testing.T) {
	limiter := ratesvc.NewLimiter(memory.NewRateWindows(), map[string]ratesvc.Policy{
		ratesvc.ActionSwipe: {Per10Sec: 1},
	})
	env := newTestEnv(t, limiter)

	if rec := env.do(t, "ana", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "bob", "decision": "accept"}); rec.Code != http.StatusOK {
		t.Fatalf("first swipe: %d %s", rec.Code, rec.Body.String())
	}

	rec := env.do(t, "ana", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "cid", "decision": "accept"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusTooManyRequests)
	}
	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	decodeBody(t, rec, &payload)
	if payload.Code != "TOO_FAST" || payload.RetryAfterSec <= 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestLikesIncoming(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, "bob", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "ana", "decision": "accept"})

	rec := env.do(t, "ana", http.MethodGet, "/v1/likes/incoming", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload struct {
		Items []struct {
			Profile struct {
				UserID      string `json:"user_id"`
				DisplayName string `json:"display_name"`
			} `json:"profile"`
		} `json:"items"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.Items) != 1 || payload.Items[0].Profile.UserID != "bob" || payload.Items[0].Profile.DisplayName != "Bob" {
		t.Fatalf("unexpected incoming likes: %+v", payload.Items)
	}
}

func TestConversationEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	convID := env.match(t, "ana", "bob")
	base := "/v1/conversations/" + convID

	rec := env.do(t, "ana", http.MethodPost, base+"/messages", map[string]string{"body": "hi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}
	var sent struct {
		ID       string `json:"id"`
		Seq      int64  `json:"seq"`
		SenderID string `json:"sender_id"`
	}
	decodeBody(t, rec, &sent)
	if sent.Seq != 1 || sent.SenderID != "ana" || sent.ID == "" {
		t.Fatalf("unexpected message: %+v", sent)
	}

	rec = env.do(t, "ana", http.MethodPost, base+"/messages", map[string]string{"body": "   "})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "empty") {
		t.Fatalf("expected empty body rejection, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, "cid", http.MethodPost, base+"/messages", map[string]string{"body": "hey"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-participant, got %d", rec.Code)
	}
	if rec := env.do(t, "ana", http.MethodPost, "/v1/conversations/ana_zed/messages", map[string]string{"body": "hey"}); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", rec.Code)
	}

	env.do(t, "ana", http.MethodPost, base+"/messages", map[string]string{"body": "hello"})

	rec = env.do(t, "bob", http.MethodGet, "/v1/conversations", nil)
	var list struct {
		Items []struct {
			ID          string `json:"id"`
			PeerID      string `json:"peer_id"`
			Unread      int    `json:"unread"`
			LastMessage struct {
				Body string `json:"body"`
			} `json:"last_message"`
		} `json:"items"`
	}
	decodeBody(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].PeerID != "ana" || list.Items[0].Unread != 2 || list.Items[0].LastMessage.Body != "hello" {
		t.Fatalf("unexpected conversation list: %+v", list.Items)
	}

	rec = env.do(t, "bob", http.MethodGet, base+"/messages?after_seq=1", nil)
	var history struct {
		Items []struct {
			Body string `json:"body"`
		} `json:"items"`
	}
	decodeBody(t, rec, &history)
	if len(history.Items) != 1 || history.Items[0].Body != "hello" {
		t.Fatalf("unexpected history: %+v", history.Items)
	}
	if rec := env.do(t, "bob", http.MethodGet, base+"/messages?after_seq=x", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad after_seq, got %d", rec.Code)
	}

	rec = env.do(t, "bob", http.MethodPost, base+"/messages/"+sent.ID+"/seen", nil)
	var seen struct {
		Seen bool `json:"seen"`
	}
	decodeBody(t, rec, &seen)
	if rec.Code != http.StatusOK || !seen.Seen {
		t.Fatalf("mark seen: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "bob", http.MethodPost, base+"/seen", nil)
	var marked struct {
		Marked int64 `json:"marked"`
	}
	decodeBody(t, rec, &marked)
	if rec.Code != http.StatusOK || marked.Marked != 1 {
		t.Fatalf("mark conversation seen: %d %s", rec.Code, rec.Body.String())
	}
}

func TestConversationReadOnlyAfterReject(t *testing.T) {
	env := newTestEnv(t, nil)
	convID := env.match(t, "ana", "bob")
	env.do(t, "ana", http.MethodPost, "/v1/conversations/"+convID+"/messages", map[string]string{"body": "hi"})

	env.do(t, "bob", http.MethodPost, "/v1/swipes", map[string]string{"target_id": "ana", "decision": "reject"})

	if rec := env.do(t, "ana", http.MethodPost, "/v1/conversations/"+convID+"/messages", map[string]string{"body": "still there?"}); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after reject, got %d", rec.Code)
	}
	if rec := env.do(t, "ana", http.MethodGet, "/v1/conversations/"+convID+"/messages", nil); rec.Code != http.StatusOK {
		t.Fatalf("history should stay readable, got %d", rec.Code)
	}

	rec := env.do(t, "ana", http.MethodGet, "/v1/conversations", nil)
	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	decodeBody(t, rec, &list)
	if len(list.Items) != 0 {
		t.Fatalf("stale conversation should not be listed: %s", rec.Body.String())
	}
}
