package enums

type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusStale  ConversationStatus = "stale"
)
