package risk

import (
	"testing"

	"nexus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBandTable(t *testing.T) {
	valid := []Band{
		{Tier: models.TierCritical, Min: 0.85, Recommendation: "reject"},
		{Tier: models.TierHigh, Min: 0.65, Recommendation: "review"},
		{Tier: models.TierMedium, Min: 0.45, Recommendation: "monitor"},
		{Tier: models.TierLow, Min: 0, Recommendation: "approve"},
	}

	tests := []struct {
		name    string
		mutate  func([]Band) []Band
		wantErr bool
	}{
		{
			name:   "valid table",
			mutate: func(b []Band) []Band { return b },
		},
		{
			name:    "missing band",
			mutate:  func(b []Band) []Band { return b[:3] },
			wantErr: true,
		},
		{
			name: "tiers out of order",
			mutate: func(b []Band) []Band {
				b[0], b[1] = b[1], b[0]
				return b
			},
			wantErr: true,
		},
		{
			name: "non-decreasing thresholds",
			mutate: func(b []Band) []Band {
				b[1].Min = 0.85
				return b
			},
			wantErr: true,
		},
		{
			name: "lowest band not at zero",
			mutate: func(b []Band) []Band {
				b[3].Min = 0.1
				return b
			},
			wantErr: true,
		},
		{
			name: "threshold above one",
			mutate: func(b []Band) []Band {
				b[0].Min = 1.5
				return b
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bands := make([]Band, len(valid))
			copy(bands, valid)
			_, err := NewBandTable(tt.mutate(bands))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBandTable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassifyGeneral(t *testing.T) {
	table, err := GeneralBands()
	require.NoError(t, err)

	tests := []struct {
		score    float64
		wantTier string
		wantRec  string
	}{
		{0.0, models.TierLow, "approve"},
		{0.44, models.TierLow, "approve"},
		{0.45, models.TierMedium, "flag_for_monitoring"},
		{0.64, models.TierMedium, "flag_for_monitoring"},
		{0.65, models.TierHigh, "manual_review"},
		{0.84, models.TierHigh, "manual_review"},
		{0.85, models.TierCritical, "reject_immediately"},
		{1.0, models.TierCritical, "reject_immediately"},
	}

	for _, tt := range tests {
		tier, rec := table.Classify(tt.score)
		assert.Equal(t, tt.wantTier, tier, "score %v", tt.score)
		assert.Equal(t, tt.wantRec, rec, "score %v", tt.score)
	}
}

func TestClassifyCheck(t *testing.T) {
	table, err := CheckBands()
	require.NoError(t, err)

	tests := []struct {
		score    float64
		wantTier string
	}{
		{0.0, models.TierLow},
		{0.49, models.TierLow},
		{0.50, models.TierMedium},
		{0.70, models.TierHigh},
		{0.89, models.TierHigh},
		{0.90, models.TierCritical},
		{1.0, models.TierCritical},
	}

	for _, tt := range tests {
		tier, rec := table.Classify(tt.score)
		assert.Equal(t, tt.wantTier, tier, "score %v", tt.score)
		assert.NotEmpty(t, rec)
	}
}
