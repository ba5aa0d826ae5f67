package apiapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	httperrors "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/errors"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/handlers"
)

const requestTimeout = 60 * time.Second

type Dependencies struct {
	Services *Services
	Logger   *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	svc := deps.Services
	healthHandler := handlers.NewHealthHandler()
	feedHandler := handlers.NewFeedHandler(svc.Feed, svc.Requeue, svc.Profiles)
	swipeHandler := handlers.NewSwipeHandler(svc.Swipes)
	likesHandler := handlers.NewLikesHandler(svc.Likes, svc.Profiles)
	conversationsHandler := handlers.NewConversationsHandler(svc.Matches, svc.Messages, svc.Profiles)
	streamHandler := handlers.NewStreamHandler(svc.Messages, deps.Logger)

	authMW := AuthMiddleware(svc.Auth, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))

			r.Get("/feed", feedHandler.Handle)
			r.Post("/feed/restart", feedHandler.Restart)
			r.Post("/feed/second-chance", feedHandler.SecondChance)
			r.Post("/swipes", swipeHandler.Handle)
			r.Get("/likes/incoming", likesHandler.Incoming)

			r.Get("/conversations", conversationsHandler.List)
			r.Get("/conversations/{conversationID}/messages", conversationsHandler.History)
			r.Post("/conversations/{conversationID}/messages", conversationsHandler.Send)
			r.Post("/conversations/{conversationID}/messages/{messageID}/seen", conversationsHandler.MarkSeen)
			r.Post("/conversations/{conversationID}/seen", conversationsHandler.MarkConversationSeen)
		})

		// Streams outlive the request timeout.
		r.Get("/conversations/{conversationID}/stream", streamHandler.Handle)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusMethodNotAllowed, httperrors.APIError{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})
}
