package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ThreadStore maps users and (user, article) pairs to provider-side
// assistant and thread identifiers. Rows are immutable once created;
// concurrent creators race benignly via DO NOTHING + re-read.
type ThreadStore struct {
	db *pgxpool.Pool
}

func NewThreadStore(db *pgxpool.Pool) *ThreadStore {
	return &ThreadStore{db: db}
}

func (s *ThreadStore) AssistantID(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT assistant_id FROM users WHERE user_id = $1`, userID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *ThreadStore) SaveAssistantID(ctx context.Context, userID, assistantID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (user_id, assistant_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, assistantID,
	)
	return err
}

func (s *ThreadStore) ThreadID(ctx context.Context, userID, articleID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT thread_id FROM threads WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *ThreadStore) SaveThreadID(ctx context.Context, userID, articleID, threadID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO threads (user_id, article_id, thread_id) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID, threadID,
	)
	return err
}
