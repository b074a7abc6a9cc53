package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order on every start. Statements must stay idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                BIGSERIAL PRIMARY KEY,
		username          VARCHAR(30) NOT NULL UNIQUE,
		password_hashed   TEXT NOT NULL,
		display_name      VARCHAR(100),
		profile_image_url TEXT,
		profile_image_key TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id          BIGSERIAL PRIMARY KEY,
		sender_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status      VARCHAR(16) NOT NULL DEFAULT 'pending'
		            CHECK (status IN ('pending', 'accepted', 'declined', 'cancelled')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ,
		CHECK (sender_id <> receiver_id)
	)`,
	// One pending request per unordered pair, whichever side sent it.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_friend_requests_pending_pair
		ON friend_requests (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id))
		WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_friend_requests_receiver
		ON friend_requests (receiver_id, created_at DESC) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_friend_requests_sender
		ON friend_requests (sender_id, created_at DESC) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_low   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_high  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_low, user_high),
		CHECK (user_low < user_high)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_friendships_high ON friendships (user_high)`,
	`CREATE TABLE IF NOT EXISTS user_blocks (
		blocker_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		blocked_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (blocker_id, blocked_id),
		CHECK (blocker_id <> blocked_id)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		caption        TEXT,
		reaction_count INTEGER NOT NULL DEFAULT 0 CHECK (reaction_count >= 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS post_images (
		id        BIGSERIAL PRIMARY KEY,
		post_id   BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		image_url TEXT NOT NULL,
		image_key TEXT NOT NULL,
		position  SMALLINT NOT NULL,
		UNIQUE (post_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS post_reactions (
		post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (post_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS saved_posts (
		user_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id  BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id           BIGSERIAL PRIMARY KEY,
		recipient_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sender_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type         VARCHAR(32) NOT NULL
		             CHECK (type IN ('friend_request', 'friend_accept', 'friend_decline', 'like')),
		post_id      BIGINT REFERENCES posts(id) ON DELETE CASCADE,
		is_read      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		platform   VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash  TEXT NOT NULL UNIQUE,
		expires_at  TIMESTAMPTZ NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		revoked_at  TIMESTAMPTZ,
		replaced_by UUID,
		user_agent  TEXT
	)`,
}

// Migrate creates every table and index the application needs.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	log.Printf("[Database] schema up to date (%d statements)", len(schema))
	return nil
}
