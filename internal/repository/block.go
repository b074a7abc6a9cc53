package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
)

type blockRepository struct {
	db *sqlx.DB
}

func NewBlockRepository(db *sqlx.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Create is idempotent; blocking twice keeps the original timestamp.
func (r *blockRepository) Create(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error {
	query := `
		INSERT INTO user_blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, blockerID, blockedID); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2`, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotBlocked
	}
	return nil
}

func (r *blockRepository) IsBlockedEither(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var blocked bool
	if err := r.db.GetContext(ctx, &blocked, query, a, b); err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return blocked, nil
}

func (r *blockRepository) List(ctx context.Context, blockerID int64) ([]model.BlockedUser, error) {
	query := `
		SELECT u.id, u.username, u.display_name, u.profile_image_url, b.created_at AS blocked_at
		FROM user_blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = $1
		ORDER BY b.created_at DESC
	`
	users := []model.BlockedUser{}
	if err := r.db.SelectContext(ctx, &users, query, blockerID); err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	return users, nil
}
