package model

import (
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
)

// Conversation is keyed by the canonical pair id. UserAID < UserBID always holds for
// records written through the match detector.
type Conversation struct {
	ID        string                   `json:"id"`
	UserAID   string                   `json:"user_a_id"`
	UserBID   string                   `json:"user_b_id"`
	Status    enums.ConversationStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	StaleAt   *time.Time               `json:"stale_at,omitempty"`
	LastSeq   int64                    `json:"last_seq"`
}

func (c Conversation) HasUser(userID string) bool {
	return userID != "" && (c.UserAID == userID || c.UserBID == userID)
}

// Peer returns the other participant.
func (c Conversation) Peer(userID string) (string, bool) {
	switch userID {
	case c.UserAID:
		return c.UserBID, true
	case c.UserBID:
		return c.UserAID, true
	default:
		return "", false
	}
}

func (c Conversation) IsActive() bool {
	return c.Status == enums.ConversationStatusActive
}
