package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"yochat/internal/model"
)

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, tx *sqlx.Tx, senderID, receiverID int64) (*model.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (sender_id, receiver_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, sender_id, receiver_id, status, created_at, resolved_at
	`
	var req model.FriendRequest
	if err := tx.GetContext(ctx, &req, query, senderID, receiverID); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicatePending
		}
		return nil, fmt.Errorf("insert friend request: %w", err)
	}
	return &req, nil
}

// ResolveRequest only matches rows still pending, so a request can leave that state once.
func (r *friendRepository) ResolveRequest(ctx context.Context, tx *sqlx.Tx, senderID, receiverID int64, status string) (*model.FriendRequest, error) {
	query := `
		UPDATE friend_requests
		SET status = $3, resolved_at = NOW()
		WHERE sender_id = $1 AND receiver_id = $2 AND status = 'pending'
		RETURNING id, sender_id, receiver_id, status, created_at, resolved_at
	`
	var req model.FriendRequest
	err := tx.GetContext(ctx, &req, query, senderID, receiverID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve friend request: %w", err)
	}
	return &req, nil
}

func (r *friendRepository) CancelPendingBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error) {
	query := `
		UPDATE friend_requests
		SET status = 'cancelled', resolved_at = NOW()
		WHERE status = 'pending'
		  AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
	`
	result, err := tx.ExecContext(ctx, query, a, b)
	if err != nil {
		return 0, fmt.Errorf("cancel pending requests: %w", err)
	}
	return result.RowsAffected()
}

func (r *friendRepository) CreateFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	edge := model.NewFriendship(a, b)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO friendships (user_low, user_high) VALUES ($1, $2)`,
		edge.UserLow, edge.UserHigh)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyFriends
		}
		return fmt.Errorf("insert friendship: %w", err)
	}
	return nil
}

func (r *friendRepository) DeleteFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	edge := model.NewFriendship(a, b)
	result, err := tx.ExecContext(ctx,
		`DELETE FROM friendships WHERE user_low = $1 AND user_high = $2`,
		edge.UserLow, edge.UserHigh)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFriends
	}
	return nil
}

func (r *friendRepository) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	edge := model.NewFriendship(a, b)
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_low = $1 AND user_high = $2)`,
		edge.UserLow, edge.UserHigh)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return exists, nil
}

func (r *friendRepository) LockFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	edge := model.NewFriendship(a, b)
	var one int
	err := tx.GetContext(ctx, &one,
		`SELECT 1 FROM friendships WHERE user_low = $1 AND user_high = $2 FOR SHARE`,
		edge.UserLow, edge.UserHigh)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock friendship: %w", err)
	}
	return true, nil
}

func (r *friendRepository) GetFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	query := `
		SELECT u.id, u.username, u.display_name, u.profile_image_url, f.created_at AS friends_since
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_low = $1 THEN f.user_high ELSE f.user_low END
		WHERE f.user_low = $1 OR f.user_high = $1
		ORDER BY u.username
	`
	friends := []model.Friend{}
	if err := r.db.SelectContext(ctx, &friends, query, userID); err != nil {
		return nil, fmt.Errorf("get friends: %w", err)
	}
	return friends, nil
}

// GetPendingReceived lists pending requests addressed to userID, joined with the sender.
func (r *friendRepository) GetPendingReceived(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	query := `
		SELECT fr.id AS request_id, fr.created_at,
		       u.id AS "user.id", u.username AS "user.username",
		       u.display_name AS "user.display_name", u.profile_image_url AS "user.profile_image_url"
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.receiver_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC, fr.id DESC
	`
	requests := []model.PendingRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, userID); err != nil {
		return nil, fmt.Errorf("get pending requests: %w", err)
	}
	return requests, nil
}

// GetPendingSent lists pending requests sent by userID, joined with the receiver.
func (r *friendRepository) GetPendingSent(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	query := `
		SELECT fr.id AS request_id, fr.created_at,
		       u.id AS "user.id", u.username AS "user.username",
		       u.display_name AS "user.display_name", u.profile_image_url AS "user.profile_image_url"
		FROM friend_requests fr
		JOIN users u ON u.id = fr.receiver_id
		WHERE fr.sender_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC, fr.id DESC
	`
	requests := []model.PendingRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, userID); err != nil {
		return nil, fmt.Errorf("get sent requests: %w", err)
	}
	return requests, nil
}

func (r *friendRepository) CheckFriends(ctx context.Context, userID int64, otherIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(otherIDs))
	if len(otherIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT CASE WHEN user_low = $1 THEN user_high ELSE user_low END
		FROM friendships
		WHERE (user_low = $1 AND user_high = ANY($2)) OR (user_high = $1 AND user_low = ANY($2))
	`
	var friendIDs []int64
	if err := r.db.SelectContext(ctx, &friendIDs, query, userID, pq.Array(otherIDs)); err != nil {
		return nil, fmt.Errorf("check friends: %w", err)
	}

	for _, id := range otherIDs {
		result[id] = false
	}
	for _, id := range friendIDs {
		result[id] = true
	}
	return result, nil
}

func (r *friendRepository) CheckPending(ctx context.Context, userID int64, otherIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(otherIDs))
	if len(otherIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
		FROM friend_requests
		WHERE status = 'pending'
		  AND ((sender_id = $1 AND receiver_id = ANY($2)) OR (receiver_id = $1 AND sender_id = ANY($2)))
	`
	var pendingIDs []int64
	if err := r.db.SelectContext(ctx, &pendingIDs, query, userID, pq.Array(otherIDs)); err != nil {
		return nil, fmt.Errorf("check pending requests: %w", err)
	}

	for _, id := range otherIDs {
		result[id] = false
	}
	for _, id := range pendingIDs {
		result[id] = true
	}
	return result, nil
}
