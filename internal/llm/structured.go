package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/store"
	"go.uber.org/zap"
)

// Routes maps operation kinds to a provider/model pair: a fast pair for
// latency-sensitive operations and a memory pair for belief-shaping
// ones.
type Routes struct {
	FastProvider   string
	FastModel      string
	MemoryProvider string
	MemoryModel    string
}

// For returns the provider and model for the given operation kind.
func (r Routes) For(op domain.Operation) (provider, model string) {
	switch op {
	case domain.OpDistill, domain.OpAlert:
		return r.MemoryProvider, r.MemoryModel
	default:
		return r.FastProvider, r.FastModel
	}
}

const repairPreamble = "Output ONLY raw JSON with no markdown, no triple backticks, no prose.\n" +
	"Return ONLY the JSON object.\n\n" +
	"ORIGINAL INSTRUCTION:\n"

const previewLimit = 700

// Caller runs structured JSON calls against the chat provider: cache
// check, invoke, cleanup, parse, one repair retry, write-through cache.
type Caller struct {
	client  domain.ChatClient
	cache   domain.CacheStore
	routes  Routes
	timeout time.Duration
	logger  *zap.Logger
}

func NewCaller(client domain.ChatClient, cache domain.CacheStore, routes Routes, timeout time.Duration, logger *zap.Logger) *Caller {
	return &Caller{
		client:  client,
		cache:   cache,
		routes:  routes,
		timeout: timeout,
		logger:  logger,
	}
}

// Call executes one structured LLM call. With a non-empty fingerprint
// the response cache is consulted first and written through on success;
// the returned payload is the cleaned raw JSON object and the meta
// carries provider, model, and HIT/MISS.
func (c *Caller) Call(ctx context.Context, threadID, prompt string, op domain.Operation, fingerprint string) (json.RawMessage, domain.CallMeta, error) {
	provider, model := c.routes.For(op)
	meta := domain.CallMeta{Provider: provider, Model: model, Cache: domain.CacheMiss}

	if fingerprint != "" {
		entry, err := c.cache.Get(ctx, threadID, op, fingerprint)
		switch {
		case err == nil:
			return entry.Result, domain.CallMeta{Provider: entry.Provider, Model: entry.Model, Cache: domain.CacheHit}, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, meta, fmt.Errorf("cache lookup: %w", err)
		}
	}

	req := domain.ChatRequest{ThreadID: threadID, Content: prompt, Provider: provider, Model: model}

	text, err := c.runOnce(ctx, req)
	if err != nil {
		return nil, meta, fmt.Errorf("llm call (%s): %w", op, err)
	}

	payload, parseErr := c.parseObject(text, "FIRST", provider, model)
	if parseErr != nil {
		req.Content = repairPreamble + prompt
		text, err = c.runOnce(ctx, req)
		if err != nil {
			return nil, meta, fmt.Errorf("llm repair call (%s): %w", op, err)
		}
		payload, parseErr = c.parseObject(text, "REPAIR", provider, model)
		if parseErr != nil {
			return nil, meta, parseErr
		}
	}

	if fingerprint != "" {
		if err := c.cache.Put(ctx, threadID, op, fingerprint, payload, provider, model); err != nil {
			// Best effort: a failed cache write must not fail the response.
			c.logger.Warn("cache write failed",
				zap.String("operation", string(op)),
				zap.String("fingerprint", fingerprint),
				zap.Error(err),
			)
		}
	}

	return payload, meta, nil
}

// runOnce prefers a non-streaming completion and falls back to
// streaming only on the provider's explicit capability signal. Every
// attempt gets its own deadline.
func (c *Caller) runOnce(ctx context.Context, req domain.ChatRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.client.Complete(callCtx, req)
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	if !errors.Is(err, ErrStreamingOnly) {
		return "", err
	}

	text, err = c.client.Stream(callCtx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// parseObject cleans the raw text and requires it to be a non-empty
// JSON object. pass names which attempt failed in the error.
func (c *Caller) parseObject(raw, pass, provider, model string) (json.RawMessage, error) {
	cooked := CleanJSON(raw)
	if cooked == "" {
		return nil, fmt.Errorf("[%s] empty LLM response after cleanup (provider=%s model=%s)", pass, provider, model)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cooked), &probe); err != nil {
		return nil, fmt.Errorf("[%s] invalid JSON object from LLM (provider=%s model=%s len=%d preview=%q): %w",
			pass, provider, model, len(cooked), clip(cooked, previewLimit), err)
	}
	// A literal null decodes into a nil map without error; it is not an
	// object and must fail the pass like any other non-object value.
	if probe == nil {
		return nil, fmt.Errorf("[%s] null LLM response is not a JSON object (provider=%s model=%s)",
			pass, provider, model)
	}

	return json.RawMessage(cooked), nil
}

// CleanJSON strips a leading/trailing markdown fence, then slices from
// the first '{' to the last '}' to discard surrounding commentary.
// Applying it to already-clean JSON is a no-op.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl != -1 {
			s = s[nl+1:]
		}
		s = strings.TrimRight(s, " \t\n")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	i := strings.IndexByte(s, '{')
	j := strings.LastIndexByte(s, '}')
	if i != -1 && j != -1 && j > i {
		s = strings.TrimSpace(s[i : j+1])
	}
	return s
}
