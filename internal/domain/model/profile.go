package model

import (
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
)

// Profile is the read-only view of a user document. Interests are stored normalized.
type Profile struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Gender      enums.Gender `json:"gender"`
	Interests   []string     `json:"interests"`
	Birthdate   *time.Time   `json:"birthdate,omitempty"`
	Photos      []string     `json:"photos"`
	OpenPool    bool         `json:"open_pool"`
}
