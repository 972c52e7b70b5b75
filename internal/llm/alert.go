package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// maxPriorBeliefs bounds the comparison window: older history is
// intentionally ignored.
const maxPriorBeliefs = 8

type priorBelief struct {
	ID         int64         `json:"id"`
	Stance     domain.Stance `json:"stance"`
	BeliefKey  string        `json:"belief_key"`
	BeliefText string        `json:"belief_text"`
	CreatedAt  string        `json:"created_at"`
}

// CompareBeliefs classifies the relationship between a new belief and
// the user's most recent priors on the same topic. The result is
// advisory: out-of-domain types coerce to none and a malformed
// conflict reference coerces to absent.
func (c *Caller) CompareBeliefs(ctx context.Context, threadID, topic string, nb domain.NewBelief, priors []domain.Belief) (*domain.BeliefAlert, domain.CallMeta, error) {
	if len(priors) > maxPriorBeliefs {
		priors = priors[:maxPriorBeliefs]
	}

	priorViews := make([]priorBelief, 0, len(priors))
	for _, p := range priors {
		text := p.BeliefText
		if text == "" {
			text = p.Claim
		}
		priorViews = append(priorViews, priorBelief{
			ID:         p.ID,
			Stance:     p.Stance,
			BeliefKey:  p.BeliefKey,
			BeliefText: clip(text, 260),
			CreatedAt:  p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	newJSON, _ := json.Marshal(nb)
	priorJSON, _ := json.Marshal(priorViews)

	prompt := fmt.Sprintf(alertPrompt, topic, newJSON, priorJSON)
	fp := Fingerprint("BELIEF_ALERT_V1", topic,
		clip(nb.BeliefKey, 80), clip(nb.BeliefText, 200), clip(string(nb.Stance), 10),
		clip(string(priorJSON), 800))

	payload, meta, err := c.Call(ctx, threadID, prompt, domain.OpAlert, fp)
	if err != nil {
		return nil, meta, err
	}

	var raw struct {
		Type            string          `json:"type"`
		Message         string          `json:"message"`
		ConflictsWithID json.RawMessage `json:"conflicts_with_id"`
	}
	_ = json.Unmarshal(payload, &raw)

	alert := &domain.BeliefAlert{
		Type:            domain.NormalizeAlertType(raw.Type),
		Message:         strings.TrimSpace(raw.Message),
		ConflictsWithID: parseConflictID(raw.ConflictsWithID),
	}
	return alert, meta, nil
}

// parseConflictID accepts an integer (or integral string) prior belief
// id; anything else is absent.
func parseConflictID(raw json.RawMessage) *int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}
