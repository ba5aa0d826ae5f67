package dto

import "time"

type IncomingLikeResponse struct {
	Profile ProfileCardResponse `json:"profile"`
	LikedAt time.Time           `json:"liked_at"`
}

type LikesIncomingResponse struct {
	Items []IncomingLikeResponse `json:"items"`
}
