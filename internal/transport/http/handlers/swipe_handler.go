package handlers

import (
	"net/http"
	"strings"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	swipesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/swipes"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
	httperrors "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.TargetID) == "" || strings.TrimSpace(req.Decision) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and decision are required")
		return
	}

	decision, err := swipesvc.ParseDecision(req.Decision)
	if err != nil {
		writeServiceError(w, err, "failed to process swipe")
		return
	}

	result, err := h.service.RecordDecision(r.Context(), identity, strings.TrimSpace(req.TargetID), decision)
	if err != nil {
		writeServiceError(w, err, "failed to process swipe")
		return
	}

	resp := dto.SwipeResponse{
		OK:           true,
		Decision:     string(result.Swipe.Decision),
		MatchCreated: result.MatchCreated,
	}
	if result.Conversation != nil {
		resp.ConversationID = result.Conversation.ID
	}
	httperrors.Write(w, http.StatusOK, resp)
}
