package handlers

import (
	"net/http"
	"strings"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	feedsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/feed"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	requeuesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/requeue"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
	httperrors "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
	requeue *requeuesvc.Service
	cards   cardMapper
}

func NewFeedHandler(service *feedsvc.Service, requeue *requeuesvc.Service, profiles *profilesvc.Service) *FeedHandler {
	return &FeedHandler{service: service, requeue: requeue, cards: cardMapper{profiles: profiles}}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	page, err := h.service.Page(r.Context(), identity, cursor, limit)
	if err != nil {
		writeServiceError(w, err, "failed to load feed")
		return
	}

	items := make([]dto.ProfileCardResponse, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, h.cards.card(r.Context(), item))
	}

	httperrors.Write(w, http.StatusOK, dto.FeedResponse{
		Session:    sessionResponse(page.Session),
		Items:      items,
		NextCursor: page.NextCursor,
	})
}

// Restart snapshots a fresh candidate list. Cursors from the previous session stop
// working.
func (h *FeedHandler) Restart(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	session, err := h.service.Open(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err, "failed to restart feed")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.FeedRestartResponse{Session: sessionResponse(session)})
}

func (h *FeedHandler) SecondChance(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.requeue == nil {
		writeInternal(w, "REQUEUE_SERVICE_UNAVAILABLE", "requeue service is unavailable")
		return
	}

	result, err := h.requeue.RequeueRejected(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err, "failed to requeue rejected candidates")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.FeedRestartResponse{Session: sessionResponse(result.Session)})
}
