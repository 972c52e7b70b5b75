package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/store"
	"go.uber.org/zap"
)

var (
	ErrUserIDMissing  = errors.New("user_id is required")
	ErrInvalidStance  = errors.New("vote must be one of AGREE, DISAGREE, UNSURE")
	ErrContentMissing = errors.New("content is required")
	ErrBeliefNotFound = errors.New("belief not found")
)

// priorWindow is how many recent beliefs are fetched as comparison
// candidates; the detector itself considers at most 8.
const priorWindow = 12

const defaultBeliefLimit = 20

// BeliefService runs the stance-recording pipeline and belief reads.
type BeliefService struct {
	beliefs  domain.BeliefStore
	messages domain.MessageStore
	threads  *ThreadService
	sem      domain.SemanticClient
	logger   *zap.Logger
}

func NewBeliefService(bs domain.BeliefStore, ms domain.MessageStore, threads *ThreadService, sem domain.SemanticClient, logger *zap.Logger) *BeliefService {
	return &BeliefService{
		beliefs:  bs,
		messages: ms,
		threads:  threads,
		sem:      sem,
		logger:   logger,
	}
}

// StanceResult is the outcome of one recorded stance.
type StanceResult struct {
	BeliefID    int64
	Topic       string
	ThreadID    string
	Alert       domain.BeliefAlert
	AlertMeta   domain.CallMeta
	DistillMeta domain.CallMeta
}

// RecordStance runs distill → compare → persist for one VOTE. The
// alert is advisory: the belief row is stored regardless of the alert
// outcome, and a distill or alert failure aborts the whole request so
// no partial belief is ever committed.
func (s *BeliefService) RecordStance(ctx context.Context, userID, articleID, topic, stance, claim, note string) (*StanceResult, error) {
	if userID == "" {
		return nil, ErrUserIDMissing
	}
	if !domain.ValidStance(stance) {
		return nil, ErrInvalidStance
	}
	topic = domain.NormalizeTopic(topic)

	threadID, err := s.threads.ThreadFor(ctx, userID, articleID)
	if err != nil {
		return nil, fmt.Errorf("resolve thread: %w", err)
	}
	sysThread, err := s.threads.SystemThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve system thread: %w", err)
	}

	// Snapshot priors before distillation; near-simultaneous votes may
	// each miss the other, which is an accepted consistency gap.
	priors, err := s.beliefs.RecentByUserTopic(ctx, userID, topic, priorWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch priors: %w", err)
	}

	distilled, distillMeta, err := s.sem.DistillBelief(ctx, sysThread, topic, domain.Stance(stance), claim, note)
	if err != nil {
		return nil, fmt.Errorf("distill belief: %w", err)
	}

	alert, alertMeta, err := s.sem.CompareBeliefs(ctx, sysThread, topic, domain.NewBelief{
		BeliefKey:  distilled.BeliefKey,
		BeliefText: distilled.BeliefText,
		Stance:     domain.Stance(stance),
	}, priors)
	if err != nil {
		return nil, fmt.Errorf("compare beliefs: %w", err)
	}

	evidence := map[string]any{
		"article_id":      articleID,
		"claim":           claim,
		"why_now":         distilled.WhyNow,
		"memory_model":    distillMeta.Model,
		"memory_provider": distillMeta.Provider,
		"memory_cache":    distillMeta.Cache,
		"alert_type":      alert.Type,
	}
	if alert.ConflictsWithID != nil {
		evidence["alert_conflicts_with_id"] = *alert.ConflictsWithID
	}

	belief := &domain.Belief{
		UserID:     userID,
		Topic:      topic,
		Stance:     domain.Stance(stance),
		Note:       note,
		Evidence:   evidence,
		BeliefKey:  distilled.BeliefKey,
		BeliefText: distilled.BeliefText,
		Confidence: distilled.Confidence,
		Conditions: distilled.Conditions,
		Claim:      claim,
	}
	if err := s.beliefs.Create(ctx, belief); err != nil {
		return nil, fmt.Errorf("store belief: %w", err)
	}

	s.logVote(ctx, threadID, stance, topic, note)

	return &StanceResult{
		BeliefID:    belief.ID,
		Topic:       topic,
		ThreadID:    threadID,
		Alert:       *alert,
		AlertMeta:   alertMeta,
		DistillMeta: distillMeta,
	}, nil
}

// AlignResult carries the alignment payload and its provenance.
type AlignResult struct {
	ThreadID string
	Response json.RawMessage
	Meta     domain.CallMeta
}

// Align compares an article thesis against a user belief. The content
// is a JSON blob from the client; unparseable input degrades to empty
// fields rather than failing.
func (s *BeliefService) Align(ctx context.Context, userID, articleID, content string) (*AlignResult, error) {
	if userID == "" {
		return nil, ErrUserIDMissing
	}
	if content == "" {
		return nil, ErrContentMissing
	}

	threadID, err := s.threads.ThreadFor(ctx, userID, articleID)
	if err != nil {
		return nil, fmt.Errorf("resolve thread: %w", err)
	}

	var payload struct {
		Thesis     string `json:"thesis"`
		BeliefText string `json:"belief_text"`
		Stance     string `json:"stance"`
	}
	_ = json.Unmarshal([]byte(content), &payload)

	resp, meta, err := s.sem.AlignBelief(ctx, threadID, payload.Thesis, payload.BeliefText, payload.Stance)
	if err != nil {
		return nil, fmt.Errorf("align belief: %w", err)
	}

	s.logMessage(ctx, threadID, "assistant", "ALIGN", string(resp))

	return &AlignResult{ThreadID: threadID, Response: resp, Meta: meta}, nil
}

// Recent returns the user's beliefs, newest first, optionally filtered
// by topic. The topic filter is normalized but not coerced: an unknown
// topic simply matches nothing.
func (s *BeliefService) Recent(ctx context.Context, userID, topic string, limit int) ([]domain.Belief, error) {
	if userID == "" {
		return nil, ErrUserIDMissing
	}
	if limit <= 0 {
		limit = defaultBeliefLimit
	}
	if topic = strings.ToLower(strings.TrimSpace(topic)); topic != "" {
		return s.beliefs.RecentByUserTopic(ctx, userID, topic, limit)
	}
	return s.beliefs.RecentByUser(ctx, userID, limit)
}

// Latest returns the newest belief for a user and topic, or
// ErrBeliefNotFound when none exists.
func (s *BeliefService) Latest(ctx context.Context, userID, topic string) (*domain.Belief, error) {
	if userID == "" {
		return nil, ErrUserIDMissing
	}
	topic = strings.ToLower(strings.TrimSpace(topic))
	rows, err := s.beliefs.RecentByUserTopic(ctx, userID, topic, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrBeliefNotFound
	}
	return &rows[0], nil
}

// GetByID fetches one belief row.
func (s *BeliefService) GetByID(ctx context.Context, id int64) (*domain.Belief, error) {
	b, err := s.beliefs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BeliefService) logVote(ctx context.Context, threadID, stance, topic, note string) {
	msg := fmt.Sprintf("VOTE: %s (topic=%q)", stance, topic)
	if note != "" {
		if len(note) > 120 {
			note = note[:120]
		}
		msg += fmt.Sprintf(" note=%q", note)
	}
	s.logMessage(ctx, threadID, "user", "VOTE", msg)
}

func (s *BeliefService) logMessage(ctx context.Context, threadID, role, action, content string) {
	m := &domain.Message{ThreadID: threadID, Role: role, Action: action, Content: content}
	if err := s.messages.Append(ctx, m); err != nil {
		s.logger.Warn("message log failed", zap.String("thread_id", threadID), zap.Error(err))
	}
}
