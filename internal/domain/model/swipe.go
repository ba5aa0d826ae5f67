package model

import (
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
)

type Swipe struct {
	FromUserID string         `json:"from_user_id"`
	ToUserID   string         `json:"to_user_id"`
	Decision   enums.Decision `json:"decision"`
	DecidedAt  time.Time      `json:"decided_at"`
}

func (s Swipe) Accepted() bool {
	return s.Decision == enums.DecisionAccept
}
