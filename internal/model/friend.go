package model

import (
	"errors"
	"time"
)

// Friend request lifecycle. Only pending is non-terminal.
const (
	RequestStatusPending   = "pending"
	RequestStatusAccepted  = "accepted"
	RequestStatusDeclined  = "declined"
	RequestStatusCancelled = "cancelled"
)

// FriendRequest is a directed request from SenderID to ReceiverID.
type FriendRequest struct {
	ID         int64      `db:"id" json:"id"`
	SenderID   int64      `db:"sender_id" json:"sender_id"`
	ReceiverID int64      `db:"receiver_id" json:"receiver_id"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Friendship is an undirected edge stored once with UserLow < UserHigh.
type Friendship struct {
	UserLow   int64     `db:"user_low" json:"user_low"`
	UserHigh  int64     `db:"user_high" json:"user_high"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewFriendship orders the pair so that the edge is the same regardless of direction.
func NewFriendship(a, b int64) Friendship {
	if a > b {
		a, b = b, a
	}
	return Friendship{UserLow: a, UserHigh: b}
}

// Other returns the member of the edge that is not userID.
func (f Friendship) Other(userID int64) int64 {
	if f.UserLow == userID {
		return f.UserHigh
	}
	return f.UserLow
}

// Friend is a friend of the listed user together with when the edge was created.
type Friend struct {
	UserSummary
	FriendsSince time.Time `db:"friends_since" json:"friends_since"`
}

// PendingRequest is a request joined with the other party's public fields.
// For received lists the user is the sender; for sent lists the receiver.
type PendingRequest struct {
	RequestID int64       `db:"request_id" json:"request_id"`
	User      UserSummary `db:"user" json:"user"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// FriendListResponse wraps a friend list for a username.
type FriendListResponse struct {
	Username string   `json:"username"`
	Friends  []Friend `json:"friends"`
}

type SendRequestRequest struct {
	ReceiverID int64 `json:"receiver_id"`
}

type RespondRequestRequest struct {
	SenderID int64 `json:"sender_id"`
}

type UnfriendRequest struct {
	UserID int64 `json:"user2_id"`
}

var (
	ErrInvalidTarget    = errors.New("cannot target yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrDuplicatePending = errors.New("a pending request already exists between these users")
	ErrRequestNotFound  = errors.New("pending friend request not found")
	ErrNotFriends       = errors.New("not friends")
)
