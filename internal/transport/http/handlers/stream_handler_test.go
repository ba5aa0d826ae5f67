package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
)

func dialStream(t *testing.T, server *httptest.Server, convID, user string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/conversations/" + convID + "/stream?user=" + user
	return websocket.DefaultDialer.Dial(url, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn) dto.StreamEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event dto.StreamEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read stream event: %v", err)
	}
	return event
}

func TestStreamDeliversHistoryThenLive(t *testing.T) {
	env := newTestEnv(t, nil)
	convID := env.match(t, "ana", "bob")
	server := httptest.NewServer(env.router)
	defer server.Close()

	ana := authsvc.Identity{UserID: "ana", SID: "sid-ana"}
	for _, body := range []string{"hi", "hello"} {
		if _, err := env.messages.Append(context.Background(), ana, convID, body); err != nil {
			t.Fatalf("append %q: %v", body, err)
		}
	}

	conn, _, err := dialStream(t, server, convID, "bob")
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer func() { _ = conn.Close() }()

	for i, want := range []string{"hi", "hello"} {
		event := readEvent(t, conn)
		if event.Type != "message" || event.Message == nil {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.Message.Body != want || event.Message.Seq != int64(i+1) {
			t.Fatalf("event %d: got %q seq %d", i, event.Message.Body, event.Message.Seq)
		}
	}

	if _, err := env.messages.Append(context.Background(), ana, convID, "how are you"); err != nil {
		t.Fatalf("append live: %v", err)
	}
	event := readEvent(t, conn)
	if event.Message == nil || event.Message.Body != "how are you" || event.Message.Seq != 3 {
		t.Fatalf("unexpected live event: %+v", event)
	}
}

func TestStreamRejectsNonParticipantBeforeUpgrade(t *testing.T) {
	env := newTestEnv(t, nil)
	convID := env.match(t, "ana", "bob")
	server := httptest.NewServer(env.router)
	defer server.Close()

	_, resp, err := dialStream(t, server, convID, "cid")
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %+v", resp)
	}

	_, resp, err = dialStream(t, server, "ana_zed", "ana")
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %v %+v", err, resp)
	}
}
