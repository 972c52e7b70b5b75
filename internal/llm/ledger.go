package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// maxLedgerBeliefs caps how much history one synthesis considers.
const maxLedgerBeliefs = 40

type ledgerBelief struct {
	ID         int64             `json:"id"`
	Stance     domain.Stance     `json:"stance"`
	BeliefText string            `json:"belief_text"`
	Confidence domain.Confidence `json:"confidence,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// SynthesizeLedger aggregates a topic's belief history (newest first)
// into a position summary. The fingerprint covers user, topic, belief
// count, and the newest belief's timestamp, so the summary is
// recomputed exactly when new evidence arrives.
func (c *Caller) SynthesizeLedger(ctx context.Context, threadID, userID, topic string, beliefs []domain.Belief) (*domain.LedgerSynthesis, domain.CallMeta, error) {
	if len(beliefs) > maxLedgerBeliefs {
		beliefs = beliefs[:maxLedgerBeliefs]
	}

	items := make([]ledgerBelief, 0, len(beliefs))
	for _, b := range beliefs {
		text := b.BeliefText
		if text == "" {
			text = b.Claim
		}
		items = append(items, ledgerBelief{
			ID:         b.ID,
			Stance:     b.Stance,
			BeliefText: text,
			Confidence: b.Confidence,
			CreatedAt:  b.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		})
	}

	latest := ""
	if len(items) > 0 {
		latest = items[0].CreatedAt
	}
	fp := Fingerprint("LEDGER_V1", userID, topic, strconv.Itoa(len(items)), latest)

	itemsJSON, _ := json.Marshal(items)
	prompt := fmt.Sprintf(ledgerPrompt, topic, itemsJSON)

	payload, meta, err := c.Call(ctx, threadID, prompt, domain.OpLedger, fp)
	if err != nil {
		return nil, meta, err
	}

	var raw struct {
		Summary       string          `json:"summary"`
		PositionLabel string          `json:"position_label"`
		Confidence    string          `json:"confidence"`
		TopThemes     json.RawMessage `json:"top_themes"`
		Drift         struct {
			Status string `json:"status"`
			Note   string `json:"note"`
		} `json:"drift"`
		RepresentativeBeliefIDs json.RawMessage `json:"representative_belief_ids"`
	}
	_ = json.Unmarshal(payload, &raw)

	out := &domain.LedgerSynthesis{
		Summary:       strings.TrimSpace(raw.Summary),
		PositionLabel: domain.NormalizePositionLabel(raw.PositionLabel),
		Confidence:    domain.NormalizeConfidence(raw.Confidence),
		TopThemes:     []string{},
		Drift: domain.Drift{
			Status: domain.NormalizeDriftStatus(raw.Drift.Status),
			Note:   strings.TrimSpace(raw.Drift.Note),
		},
		RepresentativeBeliefIDs: []int64{},
	}

	var themes []string
	if len(raw.TopThemes) > 0 && json.Unmarshal(raw.TopThemes, &themes) == nil {
		for _, t := range themes {
			if t = strings.TrimSpace(t); t != "" {
				out.TopThemes = append(out.TopThemes, t)
			}
		}
		if len(out.TopThemes) > 6 {
			out.TopThemes = out.TopThemes[:6]
		}
	}

	var ids []json.RawMessage
	if len(raw.RepresentativeBeliefIDs) > 0 && json.Unmarshal(raw.RepresentativeBeliefIDs, &ids) == nil {
		if len(ids) > 6 {
			ids = ids[:6]
		}
		for _, rawID := range ids {
			if id := parseConflictID(rawID); id != nil {
				out.RepresentativeBeliefIDs = append(out.RepresentativeBeliefIDs, *id)
			}
		}
	}

	return out, meta, nil
}
