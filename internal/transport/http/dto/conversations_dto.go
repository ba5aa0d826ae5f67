package dto

import "time"

type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Seq            int64      `json:"seq"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	Seen           bool       `json:"seen"`
	SeenAt         *time.Time `json:"seen_at,omitempty"`
}

type ConversationResponse struct {
	ID          string               `json:"id"`
	PeerID      string               `json:"peer_id"`
	Peer        *ProfileCardResponse `json:"peer,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	LastMessage *MessageResponse     `json:"last_message,omitempty"`
	Unread      int                  `json:"unread"`
}

type ConversationsResponse struct {
	Items []ConversationResponse `json:"items"`
}

type MessagesResponse struct {
	Items []MessageResponse `json:"items"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

type ConversationSeenRequest struct {
	UpToSeq int64 `json:"up_to_seq"`
}

type ConversationSeenResponse struct {
	Marked int64 `json:"marked"`
}

// StreamEvent is one websocket frame. Type is "message" or "error".
type StreamEvent struct {
	Type    string           `json:"type"`
	Message *MessageResponse `json:"message,omitempty"`
	Error   *StreamError     `json:"error,omitempty"`
}

type StreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
