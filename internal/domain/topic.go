package domain

// FixedTopics is the closed topic ontology. Every belief and article is
// filed under exactly one of these labels; the order here is the order
// ledger rows are emitted in.
var FixedTopics = []string{
	"interest rates",
	"inflation",
	"monetary policy",
	"central bank independence",
	"banking system",
	"credit conditions",
	"equity markets",
	"bond markets",
	"precious metals",
	"commodities",
	"energy markets",
	"oil markets",
	"retail earnings",
	"tech earnings",
	"corporate earnings",
	"consumer spending",
	"labor market",
	"housing market",
	"fiscal policy",
	"public debt",
	"taxation",
	"trade",
	"geopolitics",
	"economic sanctions",
	"ai policy",
	"tech policy",
}

// DefaultTopic is used whenever a topic falls outside the fixed set.
const DefaultTopic = "equity markets"

var topicSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FixedTopics))
	for _, t := range FixedTopics {
		m[t] = struct{}{}
	}
	return m
}()

// ValidTopic reports whether t is a member of the fixed topic set.
func ValidTopic(t string) bool {
	_, ok := topicSet[t]
	return ok
}

// NormalizeTopic lowercases and trims t, coercing anything outside the
// fixed set to DefaultTopic.
func NormalizeTopic(t string) string {
	t = normalizeLabel(t)
	if !ValidTopic(t) {
		return DefaultTopic
	}
	return t
}
