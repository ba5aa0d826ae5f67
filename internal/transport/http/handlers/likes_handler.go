package handlers

import (
	"net/http"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	likessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/likes"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
	httperrors "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/errors"
)

type LikesHandler struct {
	service *likessvc.Service
	cards   cardMapper
}

func NewLikesHandler(service *likessvc.Service, profiles *profilesvc.Service) *LikesHandler {
	return &LikesHandler{service: service, cards: cardMapper{profiles: profiles}}
}

func (h *LikesHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LIKES_SERVICE_UNAVAILABLE", "likes service is unavailable")
		return
	}

	rows, err := h.service.Incoming(r.Context(), identity, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "failed to load incoming likes")
		return
	}

	items := make([]dto.IncomingLikeResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.IncomingLikeResponse{
			Profile: h.cards.card(r.Context(), row.Profile),
			LikedAt: row.LikedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.LikesIncomingResponse{Items: items})
}
