package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/llm"
	"github.com/shadowbrief/shadowbrief/internal/store"
)

// mockArticleStore implements domain.ArticleStore for testing.
type mockArticleStore struct {
	articles map[string]*domain.Article
	order    []string
}

func newMockArticleStore() *mockArticleStore {
	return &mockArticleStore{articles: make(map[string]*domain.Article)}
}

func (m *mockArticleStore) Create(ctx context.Context, a *domain.Article) error {
	m.articles[a.ID] = a
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockArticleStore) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *mockArticleStore) Recent(ctx context.Context, limit int) ([]domain.Article, error) {
	var out []domain.Article
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.articles[m.order[i]])
	}
	return out, nil
}

func (m *mockArticleStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.articles)), nil
}

const testArticleBody = "Central banks have kept policy rates at multi-decade highs for over " +
	"a year, and the strain is starting to show across credit markets."

func setupArticleTest() (*ArticleService, *mockArticleStore, *mockMessageStore, *mockSemanticClient) {
	articleStore := newMockArticleStore()
	msgStore := &mockMessageStore{}
	sem := newMockSemanticClient()
	threads := NewThreadService(newMockThreadStore(), llm.NewMockChatClient(), testLogger())
	svc := NewArticleService(articleStore, msgStore, threads, sem, testLogger())
	return svc, articleStore, msgStore, sem
}

func TestArticleService_Ingest(t *testing.T) {
	svc, articleStore, _, sem := setupArticleTest()

	article, meta, err := svc.Ingest(context.Background(), "  Rates headline  ", testArticleBody, "https://example.com/a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(article.ID, "a_") {
		t.Fatalf("expected generated id with a_ prefix, got %q", article.ID)
	}
	if article.Title != "Rates headline" {
		t.Fatalf("expected trimmed title, got %q", article.Title)
	}
	if article.Topic != "interest rates" {
		t.Fatalf("expected classified topic, got %q", article.Topic)
	}
	if article.URL == nil || *article.URL != "https://example.com/a" {
		t.Fatalf("expected url set, got %v", article.URL)
	}
	if meta.Model != "mock-model" {
		t.Fatalf("expected classification meta, got %+v", meta)
	}
	if sem.classifyCalls != 1 {
		t.Fatalf("expected one classification, got %d", sem.classifyCalls)
	}
	if _, ok := articleStore.articles[article.ID]; !ok {
		t.Fatal("article not persisted")
	}
}

func TestArticleService_Ingest_TitleRequired(t *testing.T) {
	svc, _, _, _ := setupArticleTest()

	_, _, err := svc.Ingest(context.Background(), "   ", testArticleBody, "")
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestArticleService_Ingest_ContentTooShort(t *testing.T) {
	svc, _, _, sem := setupArticleTest()

	_, _, err := svc.Ingest(context.Background(), "Headline", "too short", "")
	if !errors.Is(err, ErrContentTooShort) {
		t.Fatalf("expected ErrContentTooShort, got %v", err)
	}
	if sem.classifyCalls != 0 {
		t.Fatal("validation failures must not reach the classifier")
	}
}

func TestArticleService_Ingest_ClassifyFailureAbortsWrite(t *testing.T) {
	svc, articleStore, _, sem := setupArticleTest()
	sem.classifyErr = errors.New("provider down")

	_, _, err := svc.Ingest(context.Background(), "Headline", testArticleBody, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(articleStore.articles) != 0 {
		t.Fatal("unclassified article must not be stored")
	}
}

func TestArticleService_Explain(t *testing.T) {
	svc, _, msgStore, _ := setupArticleTest()
	ctx := context.Background()

	article, _, err := svc.Ingest(ctx, "Headline", testArticleBody, "")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := svc.Explain(ctx, "u1", article.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(result.Payload) != `{"thesis": "rates are restrictive"}` {
		t.Fatalf("unexpected payload %q", result.Payload)
	}
	if result.ThreadID == "" {
		t.Fatal("expected a resolved thread id")
	}

	// The request and the response both land in the local log.
	var actions []string
	for _, m := range msgStore.messages {
		if m.ThreadID == result.ThreadID {
			actions = append(actions, m.Role+"/"+m.Action)
		}
	}
	if len(actions) != 2 || actions[0] != "user/EXPLAIN" || actions[1] != "assistant/EXPLAIN" {
		t.Fatalf("expected user+assistant EXPLAIN log entries, got %v", actions)
	}
}

func TestArticleService_Explain_NotFound(t *testing.T) {
	svc, _, _, _ := setupArticleTest()

	_, err := svc.Explain(context.Background(), "u1", "a_missing")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestArticleService_Explain_MissingUser(t *testing.T) {
	svc, _, _, _ := setupArticleTest()

	_, err := svc.Explain(context.Background(), "", "a_1")
	if !errors.Is(err, ErrUserIDMissing) {
		t.Fatalf("expected ErrUserIDMissing, got %v", err)
	}
}
