package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Migrate creates the schema if absent. The service owns its tables;
// statements are idempotent so this runs unconditionally at startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id      TEXT PRIMARY KEY,
			assistant_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS threads (
			user_id    TEXT NOT NULL,
			article_id TEXT NOT NULL,
			thread_id  TEXT NOT NULL,
			PRIMARY KEY (user_id, article_id)
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			topic      TEXT NOT NULL,
			url        TEXT,
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_time ON articles (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_topic_time ON articles (topic, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS beliefs (
			id              BIGSERIAL PRIMARY KEY,
			user_id         TEXT NOT NULL,
			topic           TEXT NOT NULL,
			stance          TEXT NOT NULL,
			note            TEXT,
			evidence        JSONB,
			belief_key      TEXT,
			belief_text     TEXT,
			confidence      TEXT,
			conditions_json JSONB,
			claim           TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_beliefs_user_time ON beliefs (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_beliefs_user_topic_time ON beliefs (user_id, topic, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS local_messages (
			id         BIGSERIAL PRIMARY KEY,
			thread_id  TEXT NOT NULL,
			role       TEXT NOT NULL,
			action     TEXT,
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_msgs_thread_time ON local_messages (thread_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS llm_cache (
			id            BIGSERIAL PRIMARY KEY,
			thread_id     TEXT NOT NULL,
			operation     TEXT NOT NULL,
			fingerprint   TEXT NOT NULL,
			response_json JSONB NOT NULL,
			model_name    TEXT,
			llm_provider  TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (thread_id, operation, fingerprint)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_thread_op ON llm_cache (thread_id, operation, created_at DESC)`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
