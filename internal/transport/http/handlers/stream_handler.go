package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	messagesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/messages"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
)

const (
	streamWriteWait    = 10 * time.Second
	streamPongWait     = 60 * time.Second
	streamPingInterval = 50 * time.Second
	streamReadLimit    = 512
)

// StreamHandler serves a conversation subscription over a websocket. The server
// only writes; client frames are read to detect close and keep pongs flowing.
type StreamHandler struct {
	messages *messagesvc.Service
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewStreamHandler(messages *messagesvc.Service, log *zap.Logger) *StreamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamHandler{
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log: log,
	}
}

func (h *StreamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.messages == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before upgrading so auth and membership failures get a plain HTTP
	// status.
	sub, err := h.messages.Subscribe(ctx, identity, chi.URLParam(r, "conversationID"))
	if err != nil {
		writeServiceError(w, err, "failed to open conversation stream")
		return
	}
	defer sub.Cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	log := h.log.With(
		zap.String("conversation_id", sub.ConversationID()),
		zap.String("user_id", identity.UserID),
	)
	log.Debug("conversation stream opened")

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, sub, log)
}

func (h *StreamHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, sub *messagesvc.Subscription, log *zap.Logger) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.writeClose(conn, websocket.CloseNormalClosure, "")
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				if err := sub.Err(); err != nil && ctx.Err() == nil {
					log.Warn("conversation stream ended", zap.Error(err))
					h.writeEvent(conn, dto.StreamEvent{
						Type:  "error",
						Error: &dto.StreamError{Code: "STREAM_FAILED", Message: "conversation stream failed, reconnect"},
					})
					h.writeClose(conn, websocket.CloseInternalServerErr, "stream failed")
					return
				}
				h.writeClose(conn, websocket.CloseNormalClosure, "")
				return
			}
			payload := messageResponse(msg)
			if err := h.writeEvent(conn, dto.StreamEvent{Type: "message", Message: &payload}); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) writeEvent(conn *websocket.Conn, event dto.StreamEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(event)
}

func (h *StreamHandler) writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(streamWriteWait))
}
