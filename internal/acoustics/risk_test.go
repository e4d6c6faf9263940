package acoustics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRisk_Boundaries(t *testing.T) {
	tests := []struct {
		lex  float64
		want RiskBand
	}{
		{0, RiskMinimal},
		{79.9, RiskMinimal},
		{80.0, RiskMedium},
		{84.9, RiskMedium},
		{85.0, RiskSignificant},
		{86.9, RiskSignificant},
		{87.0, RiskHigh},
		{110, RiskHigh},
	}
	for _, tt := range tests {
		got := ClassifyRisk(tt.lex)
		assert.Equal(t, tt.want, got.Band, "lex %v", tt.lex)
		assert.NotEmpty(t, got.Label)
		assert.NotEmpty(t, got.Color)
	}
}

func TestRiskBand_Ordered(t *testing.T) {
	assert.Less(t, int(RiskMinimal), int(RiskMedium))
	assert.Less(t, int(RiskMedium), int(RiskSignificant))
	assert.Less(t, int(RiskSignificant), int(RiskHigh))
}

func TestRiskClassFor(t *testing.T) {
	rc, ok := RiskClassFor(RiskHigh)
	require.True(t, ok)
	assert.Equal(t, "HIGH - exposure limit value exceeded", rc.Label)

	_, ok = RiskClassFor(RiskBand(9))
	assert.False(t, ok)
}

func TestRiskBand_JSON(t *testing.T) {
	b, err := json.Marshal(ClassifyRisk(86))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"band":"SIGNIFICANT"`)

	var rc RiskClass
	require.NoError(t, json.Unmarshal(b, &rc))
	assert.Equal(t, RiskSignificant, rc.Band)

	var band RiskBand
	err = band.UnmarshalText([]byte("SEVERE"))
	var unknown *UnknownBandError
	assert.ErrorAs(t, err, &unknown)
}

func TestRegulatoryLimits(t *testing.T) {
	limits := RegulatoryLimits()
	require.Len(t, limits, 3)
	assert.Equal(t, 80.0, limits[0].LEX)
	assert.Equal(t, 137.0, limits[1].Peak)
	assert.Equal(t, 87.0, limits[2].LEX)
}
