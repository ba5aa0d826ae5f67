package model

import "time"

// IncomingLike is an accept received from a user the caller has not decided on yet.
type IncomingLike struct {
	FromUserID string    `json:"from_user_id"`
	LikedAt    time.Time `json:"liked_at"`
}
