package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/store"
	"go.uber.org/zap"
)

// mockCacheStore implements domain.CacheStore for testing.
type mockCacheStore struct {
	entries map[string]*domain.CacheEntry
	putErr  error
	puts    int
	gets    int
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{entries: make(map[string]*domain.CacheEntry)}
}

func cacheKey(threadID string, op domain.Operation, fp string) string {
	return threadID + "|" + string(op) + "|" + fp
}

func (m *mockCacheStore) Get(ctx context.Context, threadID string, op domain.Operation, fp string) (*domain.CacheEntry, error) {
	m.gets++
	entry, ok := m.entries[cacheKey(threadID, op, fp)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return entry, nil
}

func (m *mockCacheStore) Put(ctx context.Context, threadID string, op domain.Operation, fp string, result []byte, provider, model string) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[cacheKey(threadID, op, fp)] = &domain.CacheEntry{
		ThreadID:    threadID,
		Operation:   op,
		Fingerprint: fp,
		Result:      result,
		Provider:    provider,
		Model:       model,
	}
	return nil
}

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testRoutes() Routes {
	return Routes{
		FastProvider:   "google",
		FastModel:      "fast-model",
		MemoryProvider: "anthropic",
		MemoryModel:    "memory-model",
	}
}

func setupCaller(client *MockChatClient) (*Caller, *mockCacheStore) {
	cache := newMockCacheStore()
	return NewCaller(client, cache, testRoutes(), 5*time.Second, testLogger()), cache
}

func TestCaller_Call_CleansFencedResponse(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{"```json\n{\"topic\": \"inflation\"}\n```"}
	caller, _ := setupCaller(client)

	payload, meta, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(payload) != `{"topic": "inflation"}` {
		t.Fatalf("expected cleaned JSON object, got %q", payload)
	}
	if meta.Cache != domain.CacheMiss {
		t.Fatalf("expected MISS on first call, got %s", meta.Cache)
	}
	if meta.Provider != "google" || meta.Model != "fast-model" {
		t.Fatalf("expected fast route for TOPIC, got %s/%s", meta.Provider, meta.Model)
	}
}

func TestCaller_Call_MemoryRouteForDistill(t *testing.T) {
	client := NewMockChatClient()
	caller, _ := setupCaller(client)

	_, meta, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpDistill, "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.Provider != "anthropic" || meta.Model != "memory-model" {
		t.Fatalf("expected memory route for DISTILL_BELIEF, got %s/%s", meta.Provider, meta.Model)
	}
}

func TestCaller_Call_RepairRetrySucceeds(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{
		"Sure! Here is your answer as plain text.",
		`{"stance": "agree"}`,
	}
	caller, _ := setupCaller(client)

	payload, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpAlert, "fp1")
	if err != nil {
		t.Fatalf("expected repair to recover, got %v", err)
	}
	if string(payload) != `{"stance": "agree"}` {
		t.Fatalf("expected repaired payload, got %q", payload)
	}
	if client.ProviderCalls() != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", client.ProviderCalls())
	}
	if !strings.HasPrefix(client.CompleteCalls[1].Content, repairPreamble) {
		t.Fatal("expected repair call to carry the repair preamble")
	}
	if !strings.HasSuffix(client.CompleteCalls[1].Content, "prompt") {
		t.Fatal("expected repair call to retain the original prompt")
	}
}

func TestCaller_Call_RepairRetryBounded(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{
		"still not json",
		"also not json",
	}
	caller, cache := setupCaller(client)

	_, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpDistill, "fp1")
	if err == nil {
		t.Fatal("expected error after failed repair")
	}
	if !strings.Contains(err.Error(), "REPAIR") {
		t.Fatalf("expected error to name the repair pass, got %v", err)
	}
	if client.ProviderCalls() != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", client.ProviderCalls())
	}
	if cache.puts != 0 {
		t.Fatal("failed calls must not be cached")
	}
}

func TestCaller_Call_CacheHitSkipsProvider(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"belief_key": "rates_hurt_growth"}`}
	caller, cache := setupCaller(client)
	ctx := context.Background()

	first, meta1, err := caller.Call(ctx, "th_1", "prompt", domain.OpDistill, "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta1.Cache != domain.CacheMiss {
		t.Fatalf("expected MISS on first call, got %s", meta1.Cache)
	}
	if cache.puts != 1 {
		t.Fatalf("expected one cache write, got %d", cache.puts)
	}

	second, meta2, err := caller.Call(ctx, "th_1", "prompt", domain.OpDistill, "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta2.Cache != domain.CacheHit {
		t.Fatalf("expected HIT on second call, got %s", meta2.Cache)
	}
	if string(first) != string(second) {
		t.Fatalf("expected byte-identical replay, got %q vs %q", first, second)
	}
	if client.ProviderCalls() != 1 {
		t.Fatalf("expected provider untouched on cache hit, got %d calls", client.ProviderCalls())
	}
}

func TestCaller_Call_CacheScopedByOperation(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"a": 1}`, `{"b": 2}`}
	caller, _ := setupCaller(client)
	ctx := context.Background()

	_, _, err := caller.Call(ctx, "th_1", "prompt", domain.OpDistill, "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_, meta, err := caller.Call(ctx, "th_1", "prompt", domain.OpAlert, "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.Cache != domain.CacheMiss {
		t.Fatal("same fingerprint under a different operation must not hit")
	}
	if client.ProviderCalls() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", client.ProviderCalls())
	}
}

func TestCaller_Call_EmptyFingerprintBypassesCache(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"x": 1}`}
	caller, cache := setupCaller(client)

	_, meta, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpExplain, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.Cache != domain.CacheMiss {
		t.Fatalf("expected MISS, got %s", meta.Cache)
	}
	if cache.gets != 0 || cache.puts != 0 {
		t.Fatal("empty fingerprint must not touch the cache")
	}
}

func TestCaller_Call_CacheWriteFailureTolerated(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"x": 1}`}
	caller, cache := setupCaller(client)
	cache.putErr = errors.New("disk full")

	payload, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err != nil {
		t.Fatalf("cache write failure must not fail the call, got %v", err)
	}
	if string(payload) != `{"x": 1}` {
		t.Fatalf("expected payload despite cache failure, got %q", payload)
	}
}

func TestCaller_Call_StreamingFallback(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteErr = ErrStreamingOnly
	client.StreamResponse = `{"topic": "housing"}`
	caller, _ := setupCaller(client)

	payload, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err != nil {
		t.Fatalf("expected streaming fallback to succeed, got %v", err)
	}
	if string(payload) != `{"topic": "housing"}` {
		t.Fatalf("expected streamed payload, got %q", payload)
	}
	if len(client.CompleteCalls) != 1 || len(client.StreamCalls) != 1 {
		t.Fatalf("expected one complete and one stream attempt, got %d/%d",
			len(client.CompleteCalls), len(client.StreamCalls))
	}
}

func TestCaller_Call_NonStreamingErrorNotRetried(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteErr = errors.New("upstream 500")
	caller, _ := setupCaller(client)

	_, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(client.StreamCalls) != 0 {
		t.Fatal("only the explicit streaming signal may trigger the stream fallback")
	}
}

func TestCaller_Call_NullTriggersRepair(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`null`, `{"topic": "inflation"}`}
	caller, cache := setupCaller(client)

	payload, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err != nil {
		t.Fatalf("expected repair to recover from null, got %v", err)
	}
	if string(payload) != `{"topic": "inflation"}` {
		t.Fatalf("expected repaired payload, got %q", payload)
	}
	if client.ProviderCalls() != 2 {
		t.Fatalf("a null reply must run the repair pass, got %d provider calls", client.ProviderCalls())
	}
	entry, getErr := cache.Get(context.Background(), "th_1", domain.OpTopic, "fp1")
	if getErr != nil {
		t.Fatalf("expected the repaired payload cached, got %v", getErr)
	}
	if string(entry.Result) != `{"topic": "inflation"}` {
		t.Fatalf("null must never be cached, cache holds %q", entry.Result)
	}
}

func TestCaller_Call_NullOnBothPassesFails(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`null`, `null`}
	caller, cache := setupCaller(client)

	_, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err == nil {
		t.Fatal("expected error when both passes return null")
	}
	if cache.puts != 0 {
		t.Fatal("failed calls must not be cached")
	}
}

func TestCaller_Call_NonObjectRejected(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`[1, 2, 3]`, `[4, 5, 6]`}
	caller, _ := setupCaller(client)

	_, _, err := caller.Call(context.Background(), "th_1", "prompt", domain.OpTopic, "fp1")
	if err == nil {
		t.Fatal("expected top-level arrays to be rejected")
	}
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose wrapped", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"whitespace", "  \n {\"a\": 1} \n ", `{"a": 1}`},
		{"empty", "", ""},
		{"no object", "nothing here", "nothing here"},
		{"nested braces", `x {"a": {"b": 2}} y`, `{"a": {"b": 2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanJSON(tt.in)
			if got != tt.want {
				t.Fatalf("CleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := CleanJSON(got); again != got {
				t.Fatalf("CleanJSON not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestRoutes_For(t *testing.T) {
	r := testRoutes()

	for _, op := range []domain.Operation{domain.OpDistill, domain.OpAlert} {
		provider, model := r.For(op)
		if provider != "anthropic" || model != "memory-model" {
			t.Fatalf("%s: expected memory route, got %s/%s", op, provider, model)
		}
	}
	for _, op := range []domain.Operation{domain.OpTopic, domain.OpExplain, domain.OpAlign, domain.OpLedger} {
		provider, model := r.For(op)
		if provider != "google" || model != "fast-model" {
			t.Fatalf("%s: expected fast route, got %s/%s", op, provider, model)
		}
	}
}
