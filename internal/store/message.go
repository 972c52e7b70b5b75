package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shadowbrief/shadowbrief/internal/domain"
)

type MessageStore struct {
	db *pgxpool.Pool
}

func NewMessageStore(db *pgxpool.Pool) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Append(ctx context.Context, m *domain.Message) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO local_messages (thread_id, role, action, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		m.ThreadID, m.Role, nullable(m.Action), m.Content,
	).Scan(&m.ID, &m.CreatedAt)
}

// RecentByThread returns up to limit messages in chronological order.
func (s *MessageStore) RecentByThread(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, thread_id, role, action, content, created_at
		 FROM local_messages
		 WHERE thread_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		threadID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var action *string
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &action, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Action = deref(action)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query reads newest-first for the index; callers want oldest-first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
