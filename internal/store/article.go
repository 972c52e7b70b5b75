package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shadowbrief/shadowbrief/internal/domain"
)

type ArticleStore struct {
	db *pgxpool.Pool
}

func NewArticleStore(db *pgxpool.Pool) *ArticleStore {
	return &ArticleStore{db: db}
}

func (s *ArticleStore) Create(ctx context.Context, a *domain.Article) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO articles (id, title, topic, url, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		a.ID, a.Title, a.Topic, a.URL, a.Content,
	).Scan(&a.CreatedAt)
}

func (s *ArticleStore) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	a := &domain.Article{}
	err := s.db.QueryRow(ctx,
		`SELECT id, title, topic, url, content, created_at FROM articles WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Title, &a.Topic, &a.URL, &a.Content, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// Recent returns article headers (no content), newest first.
func (s *ArticleStore) Recent(ctx context.Context, limit int) ([]domain.Article, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, topic, url, created_at FROM articles
		 ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Topic, &a.URL, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *ArticleStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, err
}
