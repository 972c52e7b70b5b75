package llm

const topicPrompt = `You MUST output ONLY valid JSON. No markdown. No extra text.
Task: choose the SINGLE best topic from the allowed list.
Return JSON: { "topic": string }
Rules:
- You MUST choose exactly one topic from the list below.
- Do NOT invent new topics.
- Choose the most general applicable topic.

ALLOWED TOPICS:
%s

TITLE:
%s

CONTENT:
%s`

const distillPrompt = `You MUST output ONLY valid JSON. No markdown.
Task: convert the user's stance into a specific belief proposition that can recur across articles.
Return JSON with keys:
{ "belief_key": string, "belief_text": string, "confidence": "low"|"medium"|"high", "conditions": array of strings, "why_now": string }
Rules:
- belief_key: 2-6 words, lowercase, no names/dates.
- belief_text: ONE durable sentence; avoid article-specific details.
- conditions: 0-3 short conditions/assumptions.
- why_now: one short sentence tying it to the current claim.
- Do NOT just restate the topic.

TOPIC: %s
STANCE: %s
CLAIM: %s
USER_NOTE: %s
`

const alertPrompt = `You MUST output ONLY valid JSON. No markdown.
Task: decide if the NEW belief conflicts with any PRIOR belief on the SAME topic.
Return JSON: { "type": "none"|"shift"|"conflict"|"duplicate"|"distinct", "message": string, "conflicts_with_id": number|null }
Definitions:
- duplicate: same proposition as a prior belief.
- shift: same proposition but stance changed.
- conflict: incompatible propositions OR stance contradicts a close equivalent.
- distinct: different proposition (no issue).
- none: no alert.
Rules:
- Only raise conflict/shift if fairly confident.
- message should be 1-2 short sentences.

TOPIC: %s
NEW: %s
PRIOR: %s
`

const ledgerPrompt = `You MUST output ONLY valid JSON. No markdown.
Task: Synthesize the user's overall position for this TOPIC based on the belief list.
Return JSON with EXACT keys:
{"summary": string, "position_label": "leans agree"|"leans disagree"|"mixed/conditional"|"unclear", "confidence": "low"|"medium"|"high", "top_themes": array of strings, "drift": {"status":"stable"|"shifting"|"recently_changed","note":string}, "representative_belief_ids": array of numbers}
Rules:
- summary: 1-2 sentences.
- top_themes: 3-5 short items.
- representative_belief_ids: choose 2-4 ids from the list.
- position_label MUST be one of the allowed strings.
- confidence should reflect consistency + amount of evidence.

TOPIC: %s
BELIEFS (newest first):
%s
`

const explainPrompt = `You MUST output ONLY valid JSON. No markdown. No extra commentary.
Return STRICT JSON with keys:
context: { issue: string, background: array of strings}
argument: { thesis: string, reasons: array of strings, assumptions: array of strings }
Rules:
- Do NOT summarize.
- Context is neutral orientation.
- Argument reflects the author's position.
- Keep bullets concise and have ideally 3 for reasons and 3 for assumptions.

ARTICLE:
%s`

const alignPrompt = `You MUST output ONLY valid JSON. No markdown.
Task: compare the article's thesis with the user's belief.
Return JSON: { "position": "reinforces|contradicts|partially overlaps|unrelated", "summary": string }

ARTICLE_THESIS:
%s

USER_BELIEF:
%s
(Stance: %s)`
