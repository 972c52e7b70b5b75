package domain

import (
	"strings"
	"time"
)

// Stance is the user's position on a claim.
type Stance string

const (
	StanceAgree    Stance = "AGREE"
	StanceDisagree Stance = "DISAGREE"
	StanceUnsure   Stance = "UNSURE"
)

// ValidStance reports whether s is one of the three stance values.
func ValidStance(s string) bool {
	switch Stance(s) {
	case StanceAgree, StanceDisagree, StanceUnsure:
		return true
	}
	return false
}

// Confidence is the distilled belief's confidence level.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ValidConfidence reports whether c is an allowed confidence level.
func ValidConfidence(c string) bool {
	switch Confidence(c) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// NormalizeConfidence coerces out-of-domain values to medium.
func NormalizeConfidence(c string) Confidence {
	c = normalizeLabel(c)
	if !ValidConfidence(c) {
		return ConfidenceMedium
	}
	return Confidence(c)
}

// Belief is one recorded stance, enriched with its distilled
// proposition. Beliefs are append-only: once inserted they are never
// mutated or deleted, and all reads are newest-first.
type Belief struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"user_id"`
	Topic      string         `json:"topic"`
	Stance     Stance         `json:"stance"`
	Note       string         `json:"note,omitempty"`
	Evidence   map[string]any `json:"evidence"`
	BeliefKey  string         `json:"belief_key"`
	BeliefText string         `json:"belief_text"`
	Confidence Confidence     `json:"confidence"`
	Conditions []string       `json:"conditions"`
	Claim      string         `json:"claim,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// DistilledBelief is the normalized output of belief distillation.
type DistilledBelief struct {
	BeliefKey  string     `json:"belief_key"`
	BeliefText string     `json:"belief_text"`
	Confidence Confidence `json:"confidence"`
	Conditions []string   `json:"conditions"`
	WhyNow     string     `json:"why_now"`
}

// NewBelief is a just-distilled belief handed to the conflict detector
// before it has an identifier.
type NewBelief struct {
	BeliefKey  string `json:"belief_key"`
	BeliefText string `json:"belief_text"`
	Stance     Stance `json:"stance"`
}

// AlertType classifies a new belief against the user's priors.
type AlertType string

const (
	AlertNone      AlertType = "none"
	AlertShift     AlertType = "shift"
	AlertConflict  AlertType = "conflict"
	AlertDuplicate AlertType = "duplicate"
	AlertDistinct  AlertType = "distinct"
)

// ValidAlertType reports whether t is one of the five alert types.
func ValidAlertType(t string) bool {
	switch AlertType(t) {
	case AlertNone, AlertShift, AlertConflict, AlertDuplicate, AlertDistinct:
		return true
	}
	return false
}

// NormalizeAlertType coerces anything outside the five types to none.
func NormalizeAlertType(t string) AlertType {
	t = normalizeLabel(t)
	if !ValidAlertType(t) {
		return AlertNone
	}
	return AlertType(t)
}

// BeliefAlert is the advisory result of comparing a new belief against
// the most recent priors on the same topic. It never blocks persistence
// of the new belief.
type BeliefAlert struct {
	Type            AlertType `json:"type"`
	Message         string    `json:"message"`
	ConflictsWithID *int64    `json:"conflicts_with_id"`
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
