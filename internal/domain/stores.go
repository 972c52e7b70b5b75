package domain

import "context"

// BeliefStore persists append-only belief rows.
type BeliefStore interface {
	Create(ctx context.Context, b *Belief) error
	GetByID(ctx context.Context, id int64) (*Belief, error)
	RecentByUser(ctx context.Context, userID string, limit int) ([]Belief, error)
	RecentByUserTopic(ctx context.Context, userID, topic string, limit int) ([]Belief, error)
}

// CacheStore is the response cache keyed by (thread, operation,
// fingerprint). Put replaces any existing entry for the key; Get
// returns the most recent entry or ErrNotFound.
type CacheStore interface {
	Get(ctx context.Context, threadID string, op Operation, fingerprint string) (*CacheEntry, error)
	Put(ctx context.Context, threadID string, op Operation, fingerprint string, result []byte, provider, model string) error
}

// ThreadStore maps users and (user, article) pairs to provider-side
// assistant and thread identifiers.
type ThreadStore interface {
	AssistantID(ctx context.Context, userID string) (string, error)
	SaveAssistantID(ctx context.Context, userID, assistantID string) error
	ThreadID(ctx context.Context, userID, articleID string) (string, error)
	SaveThreadID(ctx context.Context, userID, articleID, threadID string) error
}

// ArticleStore persists ingested articles.
type ArticleStore interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id string) (*Article, error)
	Recent(ctx context.Context, limit int) ([]Article, error)
	Count(ctx context.Context) (int64, error)
}

// MessageStore is the local per-thread conversation log.
type MessageStore interface {
	Append(ctx context.Context, m *Message) error
	RecentByThread(ctx context.Context, threadID string, limit int) ([]Message, error)
}
