package model

import "time"

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Seq            int64      `json:"seq"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	Seen           bool       `json:"seen"`
	SeenAt         *time.Time `json:"seen_at,omitempty"`
}
