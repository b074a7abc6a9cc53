package model

import (
	"errors"
	"time"
)

// Post represents a user's post with its metadata.
type Post struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	Caption       *string   `db:"caption" json:"caption"`
	ReactionCount int       `db:"reaction_count" json:"reaction_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// Joined fields (not in posts table)
	Images []PostImage `json:"images"`
}

// PostImage is one image of a post, ordered by Position.
type PostImage struct {
	ID       int64  `db:"id" json:"id"`
	PostID   int64  `db:"post_id" json:"-"`
	ImageURL string `db:"image_url" json:"image_url"`
	ImageKey string `db:"image_key" json:"-"`
	Position int    `db:"position" json:"position"`
}

// FeedPost is a post as seen by a particular viewer.
type FeedPost struct {
	Post
	Author           UserSummary `db:"author" json:"author"`
	ViewerHasReacted bool        `db:"viewer_has_reacted" json:"viewer_has_reacted"`
	ViewerHasSaved   bool        `db:"viewer_has_saved" json:"viewer_has_saved"`
}

// FeedResponse is the feed response.
type FeedResponse struct {
	Posts []FeedPost `json:"posts"`
}

// ReactionResult is the outcome of a reaction toggle.
type ReactionResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

// PostIDRequest is the request body shared by like, save and unsave.
type PostIDRequest struct {
	PostID int64 `json:"post_id"`
}

// NewPostImage is an uploaded image ready to be attached to a post.
type NewPostImage struct {
	URL string
	Key string
}

// CreatePostRequest is the JSON variant of post creation, used after presigned uploads.
type CreatePostRequest struct {
	Caption   *string  `json:"caption"`
	ImageKeys []string `json:"image_keys"`
}

// Post image constants
const (
	MaxPostImageCount    = 10
	MaxPostCaptionLength = 2200
	PostImageFolder      = "posts"
	MaxPostImageSize     = 10 * 1024 * 1024 // 10MB per image
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrForbidden       = errors.New("post is not visible to this user")
	ErrNoImageProvided = errors.New("at least one image is required")
	ErrTooManyImages   = errors.New("too many images")
	ErrCaptionTooLong  = errors.New("caption too long")
	ErrInvalidImageKey = errors.New("invalid image key")
)
