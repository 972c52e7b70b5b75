package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/store"
	"go.uber.org/zap"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrContentTooShort = errors.New("content is required (min 80 chars)")
	ErrArticleNotFound = errors.New("article not found")
)

const (
	minArticleContent = 80
	explainTextLimit  = 12000
	articleListLimit  = 200
)

// ArticleService ingests articles, classifying each into the fixed
// topic ontology at ingestion time.
type ArticleService struct {
	articles domain.ArticleStore
	messages domain.MessageStore
	threads  *ThreadService
	sem      domain.SemanticClient
	logger   *zap.Logger
}

func NewArticleService(as domain.ArticleStore, ms domain.MessageStore, threads *ThreadService, sem domain.SemanticClient, logger *zap.Logger) *ArticleService {
	return &ArticleService{
		articles: as,
		messages: ms,
		threads:  threads,
		sem:      sem,
		logger:   logger,
	}
}

// Ingest classifies and stores one article.
func (s *ArticleService) Ingest(ctx context.Context, title, content, url string) (*domain.Article, domain.CallMeta, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, domain.CallMeta{}, ErrTitleRequired
	}
	if len(content) < minArticleContent {
		return nil, domain.CallMeta{}, ErrContentTooShort
	}

	sysThread, err := s.threads.SystemThread(ctx)
	if err != nil {
		return nil, domain.CallMeta{}, fmt.Errorf("resolve system thread: %w", err)
	}

	topic, meta, err := s.sem.ClassifyTopic(ctx, sysThread, title, content)
	if err != nil {
		return nil, meta, fmt.Errorf("classify topic: %w", err)
	}

	article := &domain.Article{
		ID:      newArticleID(),
		Title:   title,
		Topic:   topic,
		Content: content,
	}
	if url = strings.TrimSpace(url); url != "" {
		article.URL = &url
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, meta, fmt.Errorf("store article: %w", err)
	}
	return article, meta, nil
}

// ExplainResult is the extracted argument structure of one article.
type ExplainResult struct {
	ThreadID string
	Payload  json.RawMessage
	Meta     domain.CallMeta
}

// Explain runs argument extraction for an article on the user's thread
// for it, logging the exchange to the local message log.
func (s *ArticleService) Explain(ctx context.Context, userID, articleID string) (*ExplainResult, error) {
	if userID == "" {
		return nil, ErrUserIDMissing
	}

	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	threadID, err := s.threads.ThreadFor(ctx, userID, articleID)
	if err != nil {
		return nil, fmt.Errorf("resolve thread: %w", err)
	}

	text := article.Content
	if len(text) > explainTextLimit {
		text = text[:explainTextLimit]
	}

	s.logMessage(ctx, threadID, "user", "EXPLAIN", "EXPLAIN (auto) requested")

	payload, meta, err := s.sem.ExplainArticle(ctx, threadID, articleID, text)
	if err != nil {
		return nil, fmt.Errorf("explain article: %w", err)
	}

	s.logMessage(ctx, threadID, "assistant", "EXPLAIN", string(payload))

	return &ExplainResult{ThreadID: threadID, Payload: payload, Meta: meta}, nil
}

func (s *ArticleService) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *ArticleService) List(ctx context.Context) ([]domain.Article, error) {
	return s.articles.Recent(ctx, articleListLimit)
}

func (s *ArticleService) logMessage(ctx context.Context, threadID, role, action, content string) {
	m := &domain.Message{ThreadID: threadID, Role: role, Action: action, Content: content}
	if err := s.messages.Append(ctx, m); err != nil {
		s.logger.Warn("message log failed", zap.String("thread_id", threadID), zap.Error(err))
	}
}

func newArticleID() string {
	return "a_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
