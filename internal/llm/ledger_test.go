package llm

import (
	"context"
	"testing"
	"time"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

func ledgerHistory(n int) []domain.Belief {
	beliefs := make([]domain.Belief, n)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := range beliefs {
		beliefs[i] = domain.Belief{
			ID:         int64(n - i),
			Stance:     domain.StanceAgree,
			BeliefText: "High rates slow growth",
			Confidence: domain.ConfidenceMedium,
			CreatedAt:  base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return beliefs
}

func TestSynthesizeLedger_FullPayload(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{
		"summary": "Consistently worried about tight policy.",
		"position_label": "leans agree",
		"confidence": "high",
		"top_themes": ["refinancing risk", "", "labor softening"],
		"drift": {"status": "stable", "note": "no reversals"},
		"representative_belief_ids": [3, "2", "junk", null]
	}`}
	caller, _ := setupCaller(client)

	out, meta, err := caller.SynthesizeLedger(context.Background(), "th_sys", "u1", "interest rates", ledgerHistory(5))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.PositionLabel != domain.PositionLeansAgree {
		t.Fatalf("expected leans agree, got %s", out.PositionLabel)
	}
	if out.Confidence != domain.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", out.Confidence)
	}
	if len(out.TopThemes) != 2 {
		t.Fatalf("blank themes must be dropped, got %v", out.TopThemes)
	}
	if out.Drift.Status != domain.DriftStable || out.Drift.Note != "no reversals" {
		t.Fatalf("unexpected drift %+v", out.Drift)
	}
	if len(out.RepresentativeBeliefIDs) != 2 ||
		out.RepresentativeBeliefIDs[0] != 3 || out.RepresentativeBeliefIDs[1] != 2 {
		t.Fatalf("expected ids [3 2] with junk dropped, got %v", out.RepresentativeBeliefIDs)
	}
	if meta.Model != "fast-model" {
		t.Fatalf("ledger synthesis must use the fast route, got %s", meta.Model)
	}
}

func TestSynthesizeLedger_JunkCoerced(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{
		"position_label": "strongly bullish",
		"confidence": "absolute",
		"drift": {"status": "erratic"},
		"top_themes": "not a list"
	}`}
	caller, _ := setupCaller(client)

	out, _, err := caller.SynthesizeLedger(context.Background(), "th_sys", "u1", "inflation", ledgerHistory(3))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.PositionLabel != domain.PositionUnclear {
		t.Fatalf("out-of-domain position must coerce to unclear, got %s", out.PositionLabel)
	}
	if out.Confidence != domain.ConfidenceMedium {
		t.Fatalf("out-of-domain confidence must coerce to medium, got %s", out.Confidence)
	}
	if out.Drift.Status != domain.DriftStable {
		t.Fatalf("out-of-domain drift must coerce to stable, got %s", out.Drift.Status)
	}
	if len(out.TopThemes) != 0 {
		t.Fatalf("non-list themes must coerce to empty, got %v", out.TopThemes)
	}
}

func TestSynthesizeLedger_FingerprintTracksNewEvidence(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"summary": "first"}`, `{"summary": "second"}`}
	caller, _ := setupCaller(client)
	ctx := context.Background()

	history := ledgerHistory(3)
	if _, _, err := caller.SynthesizeLedger(ctx, "th_sys", "u1", "inflation", history); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Same history replays from cache.
	_, meta, err := caller.SynthesizeLedger(ctx, "th_sys", "u1", "inflation", history)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.Cache != domain.CacheHit {
		t.Fatalf("unchanged history must hit, got %s", meta.Cache)
	}

	// A new belief at the head invalidates the fingerprint.
	grown := append([]domain.Belief{{
		ID:         99,
		Stance:     domain.StanceDisagree,
		BeliefText: "Actually rates are fine",
		CreatedAt:  time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
	}}, history...)

	_, meta, err = caller.SynthesizeLedger(ctx, "th_sys", "u1", "inflation", grown)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.Cache != domain.CacheMiss {
		t.Fatalf("new evidence must recompute, got %s", meta.Cache)
	}
	if client.ProviderCalls() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", client.ProviderCalls())
	}
}

func TestClassifyTopic_OutOfSetCoerced(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"topic": "celebrity gossip"}`}
	caller, _ := setupCaller(client)

	topic, _, err := caller.ClassifyTopic(context.Background(), "th_sys", "Some headline", "article body text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if topic != domain.DefaultTopic {
		t.Fatalf("out-of-set topic must coerce to %q, got %q", domain.DefaultTopic, topic)
	}
}

func TestClassifyTopic_InSetNormalized(t *testing.T) {
	client := NewMockChatClient()
	client.CompleteResponses = []string{`{"topic": "  Interest Rates "}`}
	caller, _ := setupCaller(client)

	topic, _, err := caller.ClassifyTopic(context.Background(), "th_sys", "Some headline", "article body text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if topic != "interest rates" {
		t.Fatalf("expected normalized in-set topic, got %q", topic)
	}
}
