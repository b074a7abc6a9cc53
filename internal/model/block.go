package model

import (
	"errors"
	"time"
)

// BlockedUser is an entry in a user's block list.
type BlockedUser struct {
	UserSummary
	BlockedAt time.Time `db:"blocked_at" json:"blocked_at"`
}

type BlockRequest struct {
	BlockedID int64 `json:"blocked_id"`
}

var (
	ErrBlocked    = errors.New("interaction blocked between these users")
	ErrNotBlocked = errors.New("user is not blocked")
)
