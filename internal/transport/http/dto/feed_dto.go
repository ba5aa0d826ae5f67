package dto

import "time"

type ProfileCardResponse struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Gender      string   `json:"gender"`
	Age         int      `json:"age,omitempty"`
	Birthdate   string   `json:"birthdate,omitempty"`
	Interests   []string `json:"interests"`
	PhotoURLs   []string `json:"photo_urls"`
}

type FeedSessionResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FeedResponse struct {
	Session    FeedSessionResponse   `json:"session"`
	Items      []ProfileCardResponse `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type FeedRestartResponse struct {
	Session FeedSessionResponse `json:"session"`
}
