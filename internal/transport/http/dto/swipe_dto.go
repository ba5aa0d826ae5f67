package dto

type SwipeRequest struct {
	TargetID string `json:"target_id"`
	Decision string `json:"decision"`
}

type SwipeResponse struct {
	OK             bool   `json:"ok"`
	Decision       string `json:"decision"`
	MatchCreated   bool   `json:"match_created"`
	ConversationID string `json:"conversation_id,omitempty"`
}
