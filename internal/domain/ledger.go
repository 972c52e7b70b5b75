package domain

import "time"

// PositionLabel summarizes which way a topic's belief history leans.
type PositionLabel string

const (
	PositionLeansAgree    PositionLabel = "leans agree"
	PositionLeansDisagree PositionLabel = "leans disagree"
	PositionMixed         PositionLabel = "mixed/conditional"
	PositionUnclear       PositionLabel = "unclear"
)

// ValidPositionLabel reports whether p is an allowed position label.
func ValidPositionLabel(p string) bool {
	switch PositionLabel(p) {
	case PositionLeansAgree, PositionLeansDisagree, PositionMixed, PositionUnclear:
		return true
	}
	return false
}

// NormalizePositionLabel coerces out-of-domain labels to unclear.
func NormalizePositionLabel(p string) PositionLabel {
	p = normalizeLabel(p)
	if !ValidPositionLabel(p) {
		return PositionUnclear
	}
	return PositionLabel(p)
}

// DriftStatus tracks whether a topic's position has been moving.
type DriftStatus string

const (
	DriftStable          DriftStatus = "stable"
	DriftShifting        DriftStatus = "shifting"
	DriftRecentlyChanged DriftStatus = "recently_changed"
)

// ValidDriftStatus reports whether d is an allowed drift status.
func ValidDriftStatus(d string) bool {
	switch DriftStatus(d) {
	case DriftStable, DriftShifting, DriftRecentlyChanged:
		return true
	}
	return false
}

// NormalizeDriftStatus coerces out-of-domain statuses to stable.
func NormalizeDriftStatus(d string) DriftStatus {
	d = normalizeLabel(d)
	if !ValidDriftStatus(d) {
		return DriftStable
	}
	return DriftStatus(d)
}

// Drift is the drift annotation on a ledger row.
type Drift struct {
	Status DriftStatus `json:"status"`
	Note   string      `json:"note"`
}

// LedgerSynthesis is the normalized model output for one topic.
type LedgerSynthesis struct {
	Summary                 string        `json:"summary"`
	PositionLabel           PositionLabel `json:"position_label"`
	Confidence              Confidence    `json:"confidence"`
	TopThemes               []string      `json:"top_themes"`
	Drift                   Drift         `json:"drift"`
	RepresentativeBeliefIDs []int64       `json:"representative_belief_ids"`
}

// LedgerEntry is one row of the belief ledger, emitted per fixed topic
// in fixed topic order.
type LedgerEntry struct {
	Topic                 string        `json:"topic"`
	EnoughData            bool          `json:"enough_data"`
	Summary               string        `json:"summary"`
	PositionLabel         PositionLabel `json:"position_label"`
	Confidence            Confidence    `json:"confidence"`
	EvidenceCount         int           `json:"evidence_count"`
	LastUpdated           *time.Time    `json:"last_updated"`
	Drift                 Drift         `json:"drift"`
	TopThemes             []string      `json:"top_themes"`
	RepresentativeBeliefs []Belief      `json:"representative_beliefs"`
	Meta                  *CallMeta     `json:"ledger_meta,omitempty"`
}
