package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	matchessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
	messagesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/messages"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
	httperrors "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/errors"
)

type ConversationsHandler struct {
	matches  *matchessvc.Service
	messages *messagesvc.Service
	cards    cardMapper
}

func NewConversationsHandler(matches *matchessvc.Service, messages *messagesvc.Service, profiles *profilesvc.Service) *ConversationsHandler {
	return &ConversationsHandler{matches: matches, messages: messages, cards: cardMapper{profiles: profiles}}
}

func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.matches == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	rows, err := h.matches.List(r.Context(), identity, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "failed to load conversations")
		return
	}

	items := make([]dto.ConversationResponse, 0, len(rows))
	for _, row := range rows {
		item := dto.ConversationResponse{
			ID:        row.Conversation.ID,
			PeerID:    row.PeerID,
			CreatedAt: row.Conversation.CreatedAt,
			Unread:    row.Unread,
		}
		if row.Peer != nil {
			card := h.cards.card(r.Context(), *row.Peer)
			item.Peer = &card
		}
		if row.LastMessage != nil {
			last := messageResponse(*row.LastMessage)
			item.LastMessage = &last
		}
		items = append(items, item)
	}
	httperrors.Write(w, http.StatusOK, dto.ConversationsResponse{Items: items})
}

func (h *ConversationsHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.messages == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	var afterSeq int64
	if raw := strings.TrimSpace(r.URL.Query().Get("after_seq")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "after_seq must be a non-negative integer")
			return
		}
		afterSeq = v
	}

	rows, err := h.messages.History(r.Context(), identity, chi.URLParam(r, "conversationID"), afterSeq, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "failed to load messages")
		return
	}

	items := make([]dto.MessageResponse, 0, len(rows))
	for _, msg := range rows {
		items = append(items, messageResponse(msg))
	}
	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{Items: items})
}

func (h *ConversationsHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.messages == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	msg, err := h.messages.Append(r.Context(), identity, chi.URLParam(r, "conversationID"), req.Body)
	if err != nil {
		writeServiceError(w, err, "failed to send message")
		return
	}
	httperrors.Write(w, http.StatusCreated, messageResponse(msg))
}

func (h *ConversationsHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.messages == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	msg, err := h.messages.MarkSeen(r.Context(), identity, chi.URLParam(r, "conversationID"), chi.URLParam(r, "messageID"))
	if err != nil {
		writeServiceError(w, err, "failed to mark message seen")
		return
	}
	httperrors.Write(w, http.StatusOK, messageResponse(msg))
}

// MarkConversationSeen accepts an optional body; an absent or zero up_to_seq marks
// everything received so far.
func (h *ConversationsHandler) MarkConversationSeen(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.messages == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	var req dto.ConversationSeenRequest
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.UpToSeq < 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "up_to_seq must be non-negative")
		return
	}

	marked, err := h.messages.MarkConversationSeen(r.Context(), identity, chi.URLParam(r, "conversationID"), req.UpToSeq)
	if err != nil {
		writeServiceError(w, err, "failed to mark conversation seen")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.ConversationSeenResponse{Marked: marked})
}
