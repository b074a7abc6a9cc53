package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
)

type savedPostRepository struct {
	db *sqlx.DB
}

func NewSavedPostRepository(db *sqlx.DB) SavedPostRepository {
	return &savedPostRepository{db: db}
}

// Create uses ON CONFLICT so a duplicate does not abort the surrounding transaction.
func (r *savedPostRepository) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO saved_posts (user_id, post_id) VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`, userID, postID)
	if err != nil {
		return fmt.Errorf("insert saved post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrDuplicateSave
	}
	return nil
}

func (r *savedPostRepository) Delete(ctx context.Context, userID, postID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return fmt.Errorf("delete saved post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrSavedPostNotFound
	}
	return nil
}

// ListByUser joins the current author fields at read time and does not filter by friendship.
func (r *savedPostRepository) ListByUser(ctx context.Context, userID int64) ([]model.SavedPost, error) {
	query := `
		SELECT p.id AS original_post_id, p.caption, p.reaction_count, p.created_at AS post_created_at,
		       u.id AS post_owner_id, u.username AS post_owner_username,
		       u.profile_image_url AS post_owner_profile_image,
		       sp.saved_at
		FROM saved_posts sp
		JOIN posts p ON p.id = sp.post_id
		JOIN users u ON u.id = p.user_id
		WHERE sp.user_id = $1
		ORDER BY sp.saved_at DESC, p.id DESC
	`
	saved := []model.SavedPost{}
	if err := r.db.SelectContext(ctx, &saved, query, userID); err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	if len(saved) == 0 {
		return saved, nil
	}

	ids := make([]int64, len(saved))
	for i := range saved {
		ids[i] = saved[i].OriginalPostID
	}
	images, err := fetchPostImages(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range saved {
		saved[i].Images = images[saved[i].OriginalPostID]
		if saved[i].Images == nil {
			saved[i].Images = []model.PostImage{}
		}
	}
	return saved, nil
}
