package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Operation is the kind of structured LLM call. It selects the model
// route and scopes cache entries.
type Operation string

const (
	OpTopic   Operation = "TOPIC"
	OpExplain Operation = "EXPLAIN"
	OpAlign   Operation = "ALIGN"
	OpDistill Operation = "DISTILL_BELIEF"
	OpAlert   Operation = "BELIEF_ALERT"
	OpLedger  Operation = "LEDGER"
)

// CacheStatus marks whether a structured result came from the cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

// CallMeta is the provenance attached to every LLM-backed result.
type CallMeta struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Cache    CacheStatus `json:"cache"`
}

// CacheEntry is one memoized structured-call result.
type CacheEntry struct {
	ThreadID    string
	Operation   Operation
	Fingerprint string
	Result      json.RawMessage
	Provider    string
	Model       string
	CreatedAt   time.Time
}

// ChatRequest is a single prompt addressed to a provider conversation
// thread, with an explicit provider/model pair.
type ChatRequest struct {
	ThreadID string
	Content  string
	Provider string
	Model    string
}

// ChatClient is the conversation-provider boundary. Complete returns
// the full response text in one shot; Stream consumes a streaming
// response and returns the concatenated content. Implementations signal
// a non-streaming capability gap with llm.ErrStreamingOnly so callers
// can fall back to Stream explicitly.
type ChatClient interface {
	CreateAssistant(ctx context.Context, name, description string) (string, error)
	CreateThread(ctx context.Context, assistantID string) (string, error)
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Stream(ctx context.Context, req ChatRequest) (string, error)
}

// StructuredCaller runs one cached, self-healing JSON call against the
// provider. The returned payload is the cleaned raw JSON object.
type StructuredCaller interface {
	Call(ctx context.Context, threadID, prompt string, op Operation, fingerprint string) (json.RawMessage, CallMeta, error)
}

// SemanticClient is the set of LLM-backed semantic transforms the
// services orchestrate. Every method normalizes model output to
// in-domain values before returning.
type SemanticClient interface {
	ClassifyTopic(ctx context.Context, threadID, title, content string) (string, CallMeta, error)
	DistillBelief(ctx context.Context, threadID, topic string, stance Stance, claim, note string) (*DistilledBelief, CallMeta, error)
	CompareBeliefs(ctx context.Context, threadID, topic string, nb NewBelief, priors []Belief) (*BeliefAlert, CallMeta, error)
	SynthesizeLedger(ctx context.Context, threadID, userID, topic string, beliefs []Belief) (*LedgerSynthesis, CallMeta, error)
	ExplainArticle(ctx context.Context, threadID, articleID, text string) (json.RawMessage, CallMeta, error)
	AlignBelief(ctx context.Context, threadID, thesis, beliefText, stance string) (json.RawMessage, CallMeta, error)
}
