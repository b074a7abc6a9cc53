package model

import (
	"errors"
	"time"
)

// SavedPost is a bookmark. Author fields are joined at read time.
type SavedPost struct {
	OriginalPostID      int64     `db:"original_post_id" json:"original_post_id"`
	Caption             *string   `db:"caption" json:"caption"`
	PostOwnerID         int64     `db:"post_owner_id" json:"post_owner_id"`
	PostOwnerUsername   string    `db:"post_owner_username" json:"post_owner_username"`
	PostOwnerProfileURL *string   `db:"post_owner_profile_image" json:"post_owner_profile_image"`
	PostCreatedAt       time.Time `db:"post_created_at" json:"post_created_at"`
	ReactionCount       int       `db:"reaction_count" json:"reaction_count"`
	SavedAt             time.Time `db:"saved_at" json:"saved_at"`

	Images []PostImage `json:"images"`
}

// SaveResult reports whether a save created a new row.
type SaveResult struct {
	Saved        bool `json:"saved"`
	AlreadySaved bool `json:"already_saved"`
}

var (
	ErrDuplicateSave     = errors.New("post already saved")
	ErrSavedPostNotFound = errors.New("saved post not found")
)
