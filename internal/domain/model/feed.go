package model

import (
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
)

// FeedSession is a snapshot of ordered candidate ids. Pages are read from the
// snapshot by offset cursor.
type FeedSession struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Kind      enums.FeedKind `json:"kind"`
	Size      int            `json:"size"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}
