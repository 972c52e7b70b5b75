package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// ClassifyTopic picks the single best topic for an article from the
// fixed ontology. Out-of-set answers coerce to the default topic.
func (c *Caller) ClassifyTopic(ctx context.Context, threadID, title, content string) (string, domain.CallMeta, error) {
	sample := clip(content, 6000)
	prompt := fmt.Sprintf(topicPrompt, strings.Join(domain.FixedTopics, ", "), title, sample)
	fp := Fingerprint("TOPIC_FIXED_V1", clip(strings.TrimSpace(title), 200), clip(sample, 2000))

	payload, meta, err := c.Call(ctx, threadID, prompt, domain.OpTopic, fp)
	if err != nil {
		return "", meta, err
	}

	var raw struct {
		Topic string `json:"topic"`
	}
	_ = json.Unmarshal(payload, &raw)

	return domain.NormalizeTopic(raw.Topic), meta, nil
}

// ExplainArticle extracts the article's context and argument structure.
// The payload shape is passed through to the transport layer untouched.
func (c *Caller) ExplainArticle(ctx context.Context, threadID, articleID, text string) (json.RawMessage, domain.CallMeta, error) {
	prompt := fmt.Sprintf(explainPrompt, text)
	fp := Fingerprint("EXPLAIN_V1", articleID, clip(text, 2000))
	return c.Call(ctx, threadID, prompt, domain.OpExplain, fp)
}

// AlignBelief compares an article thesis with a user belief.
func (c *Caller) AlignBelief(ctx context.Context, threadID, thesis, beliefText, stance string) (json.RawMessage, domain.CallMeta, error) {
	prompt := fmt.Sprintf(alignPrompt, thesis, beliefText, stance)
	fp := Fingerprint("ALIGN_V1", clip(thesis, 200), clip(beliefText, 200), stance)
	return c.Call(ctx, threadID, prompt, domain.OpAlign, fp)
}
