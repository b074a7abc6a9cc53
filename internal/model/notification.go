package model

import (
	"errors"
	"time"
)

// Notification types
const (
	NotificationTypeFriendRequest = "friend_request"
	NotificationTypeFriendAccept  = "friend_accept"
	NotificationTypeFriendDecline = "friend_decline"
	NotificationTypeLike          = "like"
)

// Notification represents a single notification record in the database.
type Notification struct {
	ID          int64     `db:"id" json:"notification_id"`
	RecipientID int64     `db:"recipient_id" json:"-"`
	SenderID    int64     `db:"sender_id" json:"sender_id"`
	Type        string    `db:"type" json:"type"`
	PostID      *int64    `db:"post_id" json:"post_id,omitempty"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Joined fields for display
	SenderUsername     string  `db:"sender_username" json:"sender_username"`
	SenderProfileImage *string `db:"sender_profile_image" json:"sender_profile_image"`
	PostThumbnail      *string `db:"post_thumbnail" json:"post_thumbnail,omitempty"`
}

// NotificationListResponse is the notification list response.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}

const DefaultNotificationLimit = 50

var ErrNotificationNotFound = errors.New("notification not found")
