package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/app/apiapp"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
)

const seedProfiles = `
profiles:
  - id: ana
    display_name: Ana
    gender: mujer
    interests: [Medicine]
    birthdate: 10/05/1999
    photos: [users/ana/0.jpg]
  - id: bob
    display_name: Bob
    gender: male
    interests: [medicine, art]
    birthdate: "1998-02-01"
  - id: eve
    display_name: Eve
    gender: female
    interests: [art]
`

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func newApp(t *testing.T) (*apiapp.App, *httptest.Server) {
	t.Helper()

	seed := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(seed, []byte(seedProfiles), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Store.SeedFile = seed
	cfg.Reconcile.Enabled = false

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	ts := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	return app, ts
}

func login(t *testing.T, app *apiapp.App, ts *httptest.Server, userID string) client {
	t.Helper()
	issued, err := app.Services().Auth.IssueSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue session for %s: %v", userID, err)
	}
	return client{t: t, base: ts.URL, token: issued.AccessToken}
}

func TestHealthz(t *testing.T) {
	_, ts := newApp(t)

	var payload struct {
		OK bool `json:"ok"`
	}
	status := client{t: t, base: ts.URL}.do(http.MethodGet, "/healthz", nil, &payload)
	if status != http.StatusOK || !payload.OK {
		t.Fatalf("unexpected health response: %d %+v", status, payload)
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	_, ts := newApp(t)

	if status := (client{t: t, base: ts.URL}).do(http.MethodGet, "/v1/feed", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

type feedPage struct {
	Items []struct {
		UserID    string   `json:"user_id"`
		Age       int      `json:"age"`
		Interests []string `json:"interests"`
	} `json:"items"`
}

func TestMatchAndConverse(t *testing.T) {
	app, ts := newApp(t)
	ana := login(t, app, ts, "ana")
	bob := login(t, app, ts, "bob")

	var page feedPage
	if status := ana.do(http.MethodGet, "/v1/feed", nil, &page); status != http.StatusOK {
		t.Fatalf("feed: %d", status)
	}
	if len(page.Items) != 1 || page.Items[0].UserID != "bob" || page.Items[0].Age == 0 {
		t.Fatalf("unexpected feed for ana: %+v", page.Items)
	}

	var swipe struct {
		MatchCreated   bool   `json:"match_created"`
		ConversationID string `json:"conversation_id"`
	}
	ana.do(http.MethodPost, "/v1/swipes", map[string]string{"target_id": "bob", "decision": "accept"}, &swipe)
	if swipe.MatchCreated {
		t.Fatalf("one-sided accept must not match")
	}
	bob.do(http.MethodPost, "/v1/swipes", map[string]string{"target_id": "ana", "decision": "like"}, &swipe)
	if !swipe.MatchCreated || swipe.ConversationID != "ana_bob" {
		t.Fatalf("expected match, got %+v", swipe)
	}

	for _, body := range []string{"hi", "hello"} {
		if status := ana.do(http.MethodPost, "/v1/conversations/ana_bob/messages", map[string]string{"body": body}, nil); status != http.StatusCreated {
			t.Fatalf("send %q: %d", body, status)
		}
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/conversations/ana_bob/stream?access_token=" + bob.token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close()

	readBody := func() string {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event struct {
			Type    string `json:"type"`
			Message struct {
				Body string `json:"body"`
			} `json:"message"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read stream: %v", err)
		}
		return event.Message.Body
	}
	if got := []string{readBody(), readBody()}; got[0] != "hi" || got[1] != "hello" {
		t.Fatalf("unexpected history: %v", got)
	}

	ana.do(http.MethodPost, "/v1/conversations/ana_bob/messages", map[string]string{"body": "how are you"}, nil)
	if got := readBody(); got != "how are you" {
		t.Fatalf("unexpected live message: %q", got)
	}

	var list struct {
		Items []struct {
			PeerID string `json:"peer_id"`
			Unread int    `json:"unread"`
		} `json:"items"`
	}
	bob.do(http.MethodGet, "/v1/conversations", nil, &list)
	if len(list.Items) != 1 || list.Items[0].PeerID != "ana" || list.Items[0].Unread != 3 {
		t.Fatalf("unexpected conversation list: %+v", list.Items)
	}
}

func TestRejectThenSecondChance(t *testing.T) {
	app, ts := newApp(t)
	ana := login(t, app, ts, "ana")

	if status := ana.do(http.MethodPost, "/v1/swipes", map[string]string{"target_id": "bob", "decision": "reject"}, nil); status != http.StatusOK {
		t.Fatalf("reject: %d", status)
	}

	ana.do(http.MethodPost, "/v1/feed/restart", nil, nil)
	var page feedPage
	ana.do(http.MethodGet, "/v1/feed", nil, &page)
	if len(page.Items) != 0 {
		t.Fatalf("rejected candidate should not be in a fresh feed: %+v", page.Items)
	}

	if status := ana.do(http.MethodPost, "/v1/feed/second-chance", nil, nil); status != http.StatusOK {
		t.Fatalf("second chance: %d", status)
	}
	ana.do(http.MethodGet, "/v1/feed", nil, &page)
	if len(page.Items) != 1 || page.Items[0].UserID != "bob" {
		t.Fatalf("expected bob in second-chance feed, got %+v", page.Items)
	}
}
