package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/memory"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
)

func newAuthService(t *testing.T) (*authsvc.Service, string) {
	t.Helper()
	svc := authsvc.NewService(authsvc.NewJWTManager("test-secret", "liggo", time.Minute), memory.NewSessionStore(), time.Hour)
	issued, err := svc.IssueSession(context.Background(), "ana")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return svc, issued.AccessToken
}

func identityEcho(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok || identity.UserID != want || identity.SID == "" {
			t.Fatalf("unexpected identity: %+v %v", identity, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	svc, token := newAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	AuthMiddleware(svc, zap.NewNop())(identityEcho(t, "ana")).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestAuthMiddlewareRejectsMissingOrInvalidToken(t *testing.T) {
	svc, token := newAuthService(t)
	mw := AuthMiddleware(svc, zap.NewNop())
	never := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler must not be called")
	})

	cases := map[string]func(*http.Request){
		"missing":      func(*http.Request) {},
		"bad scheme":   func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) },
		"bad token":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
		"query on GET": func(r *http.Request) { r.URL.RawQuery = "access_token=" + token },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
			mutate(req)
			rr := httptest.NewRecorder()
			mw(never).ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddlewareAcceptsQueryTokenOnWebsocketHandshake(t *testing.T) {
	svc, token := newAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/ana_bob/stream?access_token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rr := httptest.NewRecorder()

	AuthMiddleware(svc, zap.NewNop())(identityEcho(t, "ana")).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestAuthMiddlewareRejectsLoggedOutSession(t *testing.T) {
	svc, token := newAuthService(t)
	claims, err := svc.ValidateAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := svc.Logout(context.Background(), claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	AuthMiddleware(svc, nil)(identityEcho(t, "ana")).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequestLoggerWritesAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	requestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/healthz" {
		t.Fatalf("unexpected fields: %v", entries[0].ContextMap())
	}
}
