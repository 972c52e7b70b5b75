package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/store"
	"go.uber.org/zap"
)

// The system thread scopes operations not tied to a user-article pair
// (topic classification, distillation, alerting, ledger synthesis).
const (
	systemUserID    = "__system__"
	systemArticleID = "__ingest__"
)

// ThreadService lazily provisions provider-side assistants (one per
// user) and threads (one per user-article pair), caching the opaque
// identifiers in the relational store. Identifiers are immutable once
// created; racing creators are resolved by the store's do-nothing
// insert plus re-read.
type ThreadService struct {
	threads domain.ThreadStore
	client  domain.ChatClient
	logger  *zap.Logger
}

func NewThreadService(ts domain.ThreadStore, client domain.ChatClient, logger *zap.Logger) *ThreadService {
	return &ThreadService{threads: ts, client: client, logger: logger}
}

// AssistantFor returns the user's assistant id, creating it on first use.
func (s *ThreadService) AssistantFor(ctx context.Context, userID string) (string, error) {
	id, err := s.threads.AssistantID(ctx, userID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	name := fmt.Sprintf("ShadowBrief (%s)", userID)
	id, err = s.client.CreateAssistant(ctx, name,
		"Extract arguments, handle challenges, and store user beliefs.")
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}

	if err := s.threads.SaveAssistantID(ctx, userID, id); err != nil {
		return "", err
	}
	// A concurrent creator may have won the insert; re-read for the
	// identifier that actually stuck.
	stored, err := s.threads.AssistantID(ctx, userID)
	if err != nil {
		return "", err
	}
	if stored != id {
		s.logger.Debug("assistant create race lost", zap.String("user_id", userID))
	}
	return stored, nil
}

// ThreadFor returns the thread id for a user-article pair, creating it
// (and the user's assistant) on first use.
func (s *ThreadService) ThreadFor(ctx context.Context, userID, articleID string) (string, error) {
	id, err := s.threads.ThreadID(ctx, userID, articleID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	assistantID, err := s.AssistantFor(ctx, userID)
	if err != nil {
		return "", err
	}

	id, err = s.client.CreateThread(ctx, assistantID)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	if err := s.threads.SaveThreadID(ctx, userID, articleID, id); err != nil {
		return "", err
	}
	return s.threads.ThreadID(ctx, userID, articleID)
}

// SystemThread returns the degenerate singleton thread used for
// system-level operations.
func (s *ThreadService) SystemThread(ctx context.Context) (string, error) {
	return s.ThreadFor(ctx, systemUserID, systemArticleID)
}
