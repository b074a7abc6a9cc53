package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
)

// Transactor runs fn inside a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// Update writes the profile fields of user and refreshes UpdatedAt.
	// ErrUsernameExists when the new username is taken, ErrUserNotFound when the user is gone.
	Update(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]model.UserSummary, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type FriendRepository interface {
	// CreateRequest inserts a pending request. ErrDuplicatePending when the pair already has one.
	CreateRequest(ctx context.Context, tx *sqlx.Tx, senderID, receiverID int64) (*model.FriendRequest, error)
	// ResolveRequest moves the pending senderID->receiverID request to status.
	// ErrRequestNotFound when no such pending request exists.
	ResolveRequest(ctx context.Context, tx *sqlx.Tx, senderID, receiverID int64, status string) (*model.FriendRequest, error)
	// CancelPendingBetween cancels a pending request in either direction and reports how many were cancelled.
	CancelPendingBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error)
	// CreateFriendship inserts the edge. ErrAlreadyFriends on conflict.
	CreateFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error
	// DeleteFriendship removes the edge. ErrNotFriends when there is none.
	DeleteFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	// LockFriendship reports whether a and b are friends and, if so, share-locks the edge
	// so that a concurrent unfriend waits for tx to finish.
	LockFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) (bool, error)
	GetFriends(ctx context.Context, userID int64) ([]model.Friend, error)
	GetPendingReceived(ctx context.Context, userID int64) ([]model.PendingRequest, error)
	GetPendingSent(ctx context.Context, userID int64) ([]model.PendingRequest, error)
	// CheckFriends reports, for each of otherIDs, whether it is a friend of userID.
	CheckFriends(ctx context.Context, userID int64, otherIDs []int64) (map[int64]bool, error)
	// CheckPending reports, for each of otherIDs, whether a pending request exists with userID.
	CheckPending(ctx context.Context, userID int64, otherIDs []int64) (map[int64]bool, error)
}

type BlockRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error
	Delete(ctx context.Context, blockerID, blockedID int64) error
	// IsBlockedEither reports whether either user has blocked the other.
	IsBlockedEither(ctx context.Context, a, b int64) (bool, error)
	List(ctx context.Context, blockerID int64) ([]model.BlockedUser, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, caption *string, images []model.NewPostImage) (*model.Post, error)
	// GetVisible returns posts by viewerID and by viewerID's friends, newest first.
	GetVisible(ctx context.Context, viewerID int64) ([]model.FeedPost, error)
	GetByAuthor(ctx context.Context, authorID, viewerID int64) ([]model.FeedPost, error)
	// LockForUpdate row-locks the post for the rest of tx and returns its author.
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, postID int64) (int64, error)
	AddReaction(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	RemoveReaction(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	// IncrementReactionCount applies delta and returns the new count.
	IncrementReactionCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error)
}

type SavedPostRepository interface {
	// Create returns ErrDuplicateSave when the pair is already saved. It leaves tx usable either way.
	Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error
	// Delete returns ErrSavedPostNotFound when nothing was saved.
	Delete(ctx context.Context, userID, postID int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.SavedPost, error)
}

type NotificationRepository interface {
	// Create inserts n inside tx and fills its ID and CreatedAt.
	Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error
	// GetByID returns a notification with its sender and thumbnail fields joined.
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	List(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, recipientID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) error
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
}

type DeviceTokenRepository interface {
	// Upsert creates or reassigns a device token to userID.
	Upsert(ctx context.Context, userID int64, token, platform string) error
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	Delete(ctx context.Context, userID int64, token string) error
	// DeleteTokens removes tokens the push provider no longer accepts, whoever owns them.
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
}
