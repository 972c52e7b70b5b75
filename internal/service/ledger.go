package service

import (
	"context"
	"fmt"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"go.uber.org/zap"
)

// ledgerWindow caps how many recent beliefs per topic feed a synthesis.
const ledgerWindow = 40

// maxRepresentative caps representative beliefs attached to a row.
const maxRepresentative = 4

// LedgerService synthesizes per-topic position summaries across the
// fixed topic list.
type LedgerService struct {
	beliefs domain.BeliefStore
	threads *ThreadService
	sem     domain.SemanticClient
	logger  *zap.Logger
}

func NewLedgerService(bs domain.BeliefStore, threads *ThreadService, sem domain.SemanticClient, logger *zap.Logger) *LedgerService {
	return &LedgerService{beliefs: bs, threads: threads, sem: sem, logger: logger}
}

// GetLedger returns one entry per fixed topic, in fixed topic order.
// Topics below the evidence threshold get a degenerate row and never
// reach the synthesizer.
func (s *LedgerService) GetLedger(ctx context.Context, userID string, minCount int) ([]domain.LedgerEntry, error) {
	if userID == "" {
		return nil, ErrUserIDMissing
	}
	if minCount <= 0 {
		minCount = 3
	}

	sysThread, err := s.threads.SystemThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve system thread: %w", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(domain.FixedTopics))
	for _, topic := range domain.FixedTopics {
		beliefs, err := s.beliefs.RecentByUserTopic(ctx, userID, topic, ledgerWindow)
		if err != nil {
			return nil, fmt.Errorf("fetch beliefs for %q: %w", topic, err)
		}

		entry := domain.LedgerEntry{
			Topic:                 topic,
			PositionLabel:         domain.PositionUnclear,
			Confidence:            domain.ConfidenceLow,
			EvidenceCount:         len(beliefs),
			Drift:                 domain.Drift{Status: domain.DriftStable},
			TopThemes:             []string{},
			RepresentativeBeliefs: []domain.Belief{},
		}
		if len(beliefs) > 0 {
			ts := beliefs[0].CreatedAt
			entry.LastUpdated = &ts
		}

		if len(beliefs) < minCount {
			entries = append(entries, entry)
			continue
		}

		synth, meta, err := s.sem.SynthesizeLedger(ctx, sysThread, userID, topic, beliefs)
		if err != nil {
			return nil, fmt.Errorf("synthesize %q: %w", topic, err)
		}

		entry.EnoughData = true
		entry.Summary = synth.Summary
		entry.PositionLabel = synth.PositionLabel
		entry.Confidence = synth.Confidence
		entry.Drift = synth.Drift
		entry.TopThemes = synth.TopThemes
		entry.RepresentativeBeliefs = pickRepresentative(beliefs, synth.RepresentativeBeliefIDs)
		entry.Meta = &meta

		entries = append(entries, entry)
	}

	return entries, nil
}

// pickRepresentative resolves model-chosen ids against the input set;
// non-members are silently dropped.
func pickRepresentative(beliefs []domain.Belief, ids []int64) []domain.Belief {
	byID := make(map[int64]domain.Belief, len(beliefs))
	for _, b := range beliefs {
		byID[b.ID] = b
	}

	out := make([]domain.Belief, 0, maxRepresentative)
	for _, id := range ids {
		if len(out) == maxRepresentative {
			break
		}
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}
