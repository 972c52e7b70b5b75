package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// CacheStore memoizes structured LLM results keyed by
// (thread, operation, fingerprint). Entries are never evicted.
type CacheStore struct {
	db *pgxpool.Pool
}

func NewCacheStore(db *pgxpool.Pool) *CacheStore {
	return &CacheStore{db: db}
}

// Get returns the most recent entry for the key triple, or ErrNotFound.
func (s *CacheStore) Get(ctx context.Context, threadID string, op domain.Operation, fingerprint string) (*domain.CacheEntry, error) {
	e := &domain.CacheEntry{ThreadID: threadID, Operation: op, Fingerprint: fingerprint}
	var provider, model *string
	err := s.db.QueryRow(ctx,
		`SELECT response_json, model_name, llm_provider, created_at
		 FROM llm_cache
		 WHERE thread_id = $1 AND operation = $2 AND fingerprint = $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		threadID, op, fingerprint,
	).Scan(&e.Result, &model, &provider, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.Model = deref(model)
	e.Provider = deref(provider)
	return e, nil
}

// Put upserts the entry for the key triple; the last writer wins.
// Racing writers are harmless because the payload is a deterministic
// function of the fingerprinted inputs.
func (s *CacheStore) Put(ctx context.Context, threadID string, op domain.Operation, fingerprint string, result []byte, provider, model string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO llm_cache (thread_id, operation, fingerprint, response_json, model_name, llm_provider)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (thread_id, operation, fingerprint)
		 DO UPDATE SET response_json = EXCLUDED.response_json,
		               model_name    = EXCLUDED.model_name,
		               llm_provider  = EXCLUDED.llm_provider,
		               created_at    = NOW()`,
		threadID, op, fingerprint, result, model, provider,
	)
	return err
}
