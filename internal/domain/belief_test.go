package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStance(t *testing.T) {
	assert.True(t, ValidStance("AGREE"))
	assert.True(t, ValidStance("DISAGREE"))
	assert.True(t, ValidStance("UNSURE"))
	assert.False(t, ValidStance("agree"))
	assert.False(t, ValidStance("MAYBE"))
	assert.False(t, ValidStance(""))
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, NormalizeConfidence("high"))
	assert.Equal(t, ConfidenceHigh, NormalizeConfidence("  HIGH  "))
	assert.Equal(t, ConfidenceMedium, NormalizeConfidence("absolutely certain"))
	assert.Equal(t, ConfidenceMedium, NormalizeConfidence(""))
}

func TestNormalizeAlertType(t *testing.T) {
	assert.Equal(t, AlertConflict, NormalizeAlertType("conflict"))
	assert.Equal(t, AlertShift, NormalizeAlertType(" Shift "))
	assert.Equal(t, AlertNone, NormalizeAlertType("catastrophe"))
	assert.Equal(t, AlertNone, NormalizeAlertType(""))
}

func TestNormalizePositionLabel(t *testing.T) {
	assert.Equal(t, PositionLeansAgree, NormalizePositionLabel("leans agree"))
	assert.Equal(t, PositionMixed, NormalizePositionLabel("MIXED/CONDITIONAL"))
	assert.Equal(t, PositionUnclear, NormalizePositionLabel("strongly bullish"))
}

func TestNormalizeDriftStatus(t *testing.T) {
	assert.Equal(t, DriftRecentlyChanged, NormalizeDriftStatus("recently_changed"))
	assert.Equal(t, DriftStable, NormalizeDriftStatus("erratic"))
}

func TestNormalizeTopic(t *testing.T) {
	assert.Equal(t, "interest rates", NormalizeTopic("  Interest Rates "))
	assert.Equal(t, DefaultTopic, NormalizeTopic("celebrity gossip"))
	assert.Equal(t, DefaultTopic, NormalizeTopic(""))

	// Every fixed topic must survive normalization untouched.
	for _, topic := range FixedTopics {
		assert.Equal(t, topic, NormalizeTopic(topic))
	}
}
