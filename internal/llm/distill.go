package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// DistillBelief converts a stance on a claim into a durable belief
// proposition. Malformed model output is never rejected: every missing
// or invalid field is defaulted so downstream code only sees in-domain
// values.
func (c *Caller) DistillBelief(ctx context.Context, threadID, topic string, stance domain.Stance, claim, note string) (*domain.DistilledBelief, domain.CallMeta, error) {
	prompt := fmt.Sprintf(distillPrompt, topic, stance, claim, note)
	fp := Fingerprint("DISTILL_BELIEF_V1", topic, string(stance), clip(claim, 400), clip(note, 200))

	payload, meta, err := c.Call(ctx, threadID, prompt, domain.OpDistill, fp)
	if err != nil {
		return nil, meta, err
	}

	var raw struct {
		BeliefKey  string          `json:"belief_key"`
		BeliefText string          `json:"belief_text"`
		Confidence string          `json:"confidence"`
		Conditions json.RawMessage `json:"conditions"`
		WhyNow     string          `json:"why_now"`
	}
	// payload is a validated JSON object; field-level junk is handled below.
	_ = json.Unmarshal(payload, &raw)

	d := &domain.DistilledBelief{
		BeliefKey:  strings.ToLower(strings.TrimSpace(raw.BeliefKey)),
		BeliefText: strings.TrimSpace(raw.BeliefText),
		Confidence: domain.NormalizeConfidence(raw.Confidence),
		Conditions: []string{},
		WhyNow:     strings.TrimSpace(raw.WhyNow),
	}
	if d.BeliefKey == "" {
		d.BeliefKey = "general"
	}
	if d.BeliefText == "" {
		d.BeliefText = strings.TrimSpace(claim)
	}

	var conditions []string
	if len(raw.Conditions) > 0 && json.Unmarshal(raw.Conditions, &conditions) == nil {
		for _, cond := range conditions {
			if cond = strings.TrimSpace(cond); cond != "" {
				d.Conditions = append(d.Conditions, cond)
			}
		}
		if len(d.Conditions) > 3 {
			d.Conditions = d.Conditions[:3]
		}
	}

	return d, meta, nil
}
