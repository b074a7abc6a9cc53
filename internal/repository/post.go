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

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// feedColumns selects a post as seen by viewer $1, with the author under "author.".
const feedColumns = `
	p.id, p.user_id, p.caption, p.reaction_count, p.created_at,
	u.id AS "author.id", u.username AS "author.username",
	u.display_name AS "author.display_name", u.profile_image_url AS "author.profile_image_url",
	EXISTS(SELECT 1 FROM post_reactions pr WHERE pr.post_id = p.id AND pr.user_id = $1) AS viewer_has_reacted,
	EXISTS(SELECT 1 FROM saved_posts sp WHERE sp.post_id = p.id AND sp.user_id = $1) AS viewer_has_saved
`

// Create inserts a new post and its images in a transaction.
func (r *postRepository) Create(ctx context.Context, userID int64, caption *string, images []model.NewPostImage) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var post model.Post
	query := `
		INSERT INTO posts (user_id, caption)
		VALUES ($1, $2)
		RETURNING id, user_id, caption, reaction_count, created_at
	`
	if err := tx.GetContext(ctx, &post, query, userID, caption); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	imageQuery := `
		INSERT INTO post_images (post_id, image_url, image_key, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, post_id, image_url, image_key, position
	`
	post.Images = make([]model.PostImage, len(images))
	for i, img := range images {
		if err := tx.GetContext(ctx, &post.Images[i], imageQuery, post.ID, img.URL, img.Key, i); err != nil {
			return nil, fmt.Errorf("insert image %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &post, nil
}

// GetVisible reads the friendship table directly so that an unfriend hides posts immediately.
func (r *postRepository) GetVisible(ctx context.Context, viewerID int64) ([]model.FeedPost, error) {
	query := `
		SELECT ` + feedColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		   OR p.user_id IN (
				SELECT user_high FROM friendships WHERE user_low = $1
				UNION ALL
				SELECT user_low FROM friendships WHERE user_high = $1
		   )
		ORDER BY p.created_at DESC, p.id DESC
	`
	return r.selectFeedPosts(ctx, query, viewerID)
}

func (r *postRepository) GetByAuthor(ctx context.Context, authorID, viewerID int64) ([]model.FeedPost, error) {
	query := `
		SELECT ` + feedColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $2
		ORDER BY p.created_at DESC, p.id DESC
	`
	return r.selectFeedPosts(ctx, query, viewerID, authorID)
}

func (r *postRepository) selectFeedPosts(ctx context.Context, query string, args ...interface{}) ([]model.FeedPost, error) {
	posts := []model.FeedPost{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("select feed posts: %w", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	images, err := fetchPostImages(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Images = images[posts[i].ID]
		if posts[i].Images == nil {
			posts[i].Images = []model.PostImage{}
		}
	}
	return posts, nil
}

// LockForUpdate serializes concurrent reaction toggles on the same post.
func (r *postRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, postID int64) (int64, error) {
	var authorID int64
	err := tx.GetContext(ctx, &authorID, `SELECT user_id FROM posts WHERE id = $1 FOR UPDATE`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock post: %w", err)
	}
	return authorID, nil
}

func (r *postRepository) AddReaction(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `
		INSERT INTO post_reactions (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *postRepository) RemoveReaction(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM post_reactions WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *postRepository) IncrementReactionCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		`UPDATE posts SET reaction_count = reaction_count + $1 WHERE id = $2 RETURNING reaction_count`,
		delta, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update reaction count: %w", err)
	}
	return count, nil
}

// fetchPostImages loads images for many posts in one query, grouped by post.
func fetchPostImages(ctx context.Context, q sqlx.QueryerContext, postIDs []int64) (map[int64][]model.PostImage, error) {
	if len(postIDs) == 0 {
		return map[int64][]model.PostImage{}, nil
	}

	query := `
		SELECT id, post_id, image_url, image_key, position
		FROM post_images
		WHERE post_id = ANY($1)
		ORDER BY post_id, position
	`
	var images []model.PostImage
	if err := sqlx.SelectContext(ctx, q, &images, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("get post images: %w", err)
	}

	result := make(map[int64][]model.PostImage)
	for _, img := range images {
		result[img.PostID] = append(result[img.PostID], img)
	}
	return result, nil
}
