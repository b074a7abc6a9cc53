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

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// enrichedSelect joins the sender and, for post notifications, the first image of the post.
const enrichedSelect = `
	SELECT n.id, n.recipient_id, n.sender_id, n.type, n.post_id, n.is_read, n.created_at,
	       u.username AS sender_username, u.profile_image_url AS sender_profile_image,
	       (SELECT pi.image_url FROM post_images pi
	         WHERE pi.post_id = n.post_id ORDER BY pi.position LIMIT 1) AS post_thumbnail
	FROM notifications n
	JOIN users u ON u.id = n.sender_id
`

func (r *notificationRepository) Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, sender_id, type, post_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`
	err := tx.QueryRowxContext(ctx, query, n.RecipientID, n.SenderID, n.Type, n.PostID).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n, enrichedSelect+` WHERE n.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	query := enrichedSelect + `
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2
	`
	notifications := []model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead only touches rows owned by recipientID; foreign ids are ignored.
func (r *notificationRepository) MarkAsRead(ctx context.Context, recipientID int64, notificationIDs []int64) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND id = ANY($2) AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, recipientID, pq.Array(notificationIDs)); err != nil {
		return fmt.Errorf("mark notifications as read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("mark all notifications as read: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
