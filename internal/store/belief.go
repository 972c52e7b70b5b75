package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shadowbrief/shadowbrief/internal/domain"
)

type BeliefStore struct {
	db *pgxpool.Pool
}

func NewBeliefStore(db *pgxpool.Pool) *BeliefStore {
	return &BeliefStore{db: db}
}

func (s *BeliefStore) Create(ctx context.Context, b *domain.Belief) error {
	evidence, err := json.Marshal(b.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	conditions, err := json.Marshal(b.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO beliefs (user_id, topic, stance, note, evidence, belief_key, belief_text, confidence, conditions_json, claim)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		b.UserID, b.Topic, b.Stance, nullable(b.Note), evidence,
		b.BeliefKey, b.BeliefText, b.Confidence, conditions, nullable(b.Claim),
	).Scan(&b.ID, &b.CreatedAt)
}

func (s *BeliefStore) GetByID(ctx context.Context, id int64) (*domain.Belief, error) {
	row := s.db.QueryRow(ctx, beliefColumns+` FROM beliefs WHERE id = $1`, id)
	b, err := scanBelief(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BeliefStore) RecentByUser(ctx context.Context, userID string, limit int) ([]domain.Belief, error) {
	rows, err := s.db.Query(ctx,
		beliefColumns+` FROM beliefs WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

func (s *BeliefStore) RecentByUserTopic(ctx context.Context, userID, topic string, limit int) ([]domain.Belief, error) {
	rows, err := s.db.Query(ctx,
		beliefColumns+` FROM beliefs WHERE user_id = $1 AND topic = $2 ORDER BY created_at DESC, id DESC LIMIT $3`,
		userID, topic, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

const beliefColumns = `SELECT id, user_id, topic, stance, note, evidence, belief_key, belief_text, confidence, conditions_json, claim, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBelief(row rowScanner) (*domain.Belief, error) {
	b := &domain.Belief{}
	var note, beliefKey, beliefText, confidence, claim *string
	var evidence, conditions []byte

	err := row.Scan(&b.ID, &b.UserID, &b.Topic, &b.Stance, &note, &evidence,
		&beliefKey, &beliefText, &confidence, &conditions, &claim, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.Note = deref(note)
	b.BeliefKey = deref(beliefKey)
	b.BeliefText = deref(beliefText)
	b.Confidence = domain.Confidence(deref(confidence))
	b.Claim = deref(claim)

	// Tolerate rows written before enrichment columns existed.
	b.Evidence = map[string]any{}
	if len(evidence) > 0 {
		_ = json.Unmarshal(evidence, &b.Evidence)
	}
	b.Conditions = []string{}
	if len(conditions) > 0 {
		_ = json.Unmarshal(conditions, &b.Conditions)
	}
	return b, nil
}

func collectBeliefs(rows pgx.Rows) ([]domain.Belief, error) {
	var out []domain.Belief
	for rows.Next() {
		b, err := scanBelief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
