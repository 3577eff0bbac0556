package risk

import (
	"fmt"

	"nexus/internal/models"
)

// Band binds a tier to its minimum inclusive score and recommendation.
type Band struct {
	Tier           string
	Min            float64
	Recommendation string
}

// BandTable maps scores to tiers. Bands are ordered most severe first
// and checked high-to-low; the lowest band must start at 0 so every
// score in [0,1] lands in exactly one tier.
type BandTable struct {
	bands []Band
}

// NewBandTable validates and builds a band table. The table must cover
// all four tiers in severity order with strictly decreasing thresholds
// ending at 0.
func NewBandTable(bands []Band) (BandTable, error) {
	if len(bands) != 4 {
		return BandTable{}, fmt.Errorf("%w: expected 4 bands, got %d", ErrInvalidBandTable, len(bands))
	}
	order := []string{models.TierCritical, models.TierHigh, models.TierMedium, models.TierLow}
	for i, band := range bands {
		if band.Tier != order[i] {
			return BandTable{}, fmt.Errorf("%w: band %d is %q, want %q",
				ErrInvalidBandTable, i, band.Tier, order[i])
		}
		if band.Min < 0 || band.Min > 1 {
			return BandTable{}, fmt.Errorf("%w: %s threshold %v outside [0,1]",
				ErrInvalidBandTable, band.Tier, band.Min)
		}
		if i > 0 && band.Min >= bands[i-1].Min {
			return BandTable{}, fmt.Errorf("%w: %s threshold %v not below %s threshold %v",
				ErrInvalidBandTable, band.Tier, band.Min, bands[i-1].Tier, bands[i-1].Min)
		}
	}
	if bands[len(bands)-1].Min != 0 {
		return BandTable{}, fmt.Errorf("%w: lowest band must start at 0", ErrInvalidBandTable)
	}
	return BandTable{bands: bands}, nil
}

// Classify returns the highest qualifying tier and its recommendation.
func (t BandTable) Classify(score float64) (string, string) {
	for _, band := range t.bands {
		if score >= band.Min {
			return band.Tier, band.Recommendation
		}
	}
	// Unreachable with a validated table; negative scores cannot occur.
	last := t.bands[len(t.bands)-1]
	return last.Tier, last.Recommendation
}

// GeneralBands is the band table for transactions, teller behavior and
// cash handling.
func GeneralBands() (BandTable, error) {
	return NewBandTable([]Band{
		{Tier: models.TierCritical, Min: 0.85, Recommendation: "reject_immediately"},
		{Tier: models.TierHigh, Min: 0.65, Recommendation: "manual_review"},
		{Tier: models.TierMedium, Min: 0.45, Recommendation: "flag_for_monitoring"},
		{Tier: models.TierLow, Min: 0, Recommendation: "approve"},
	})
}

// CheckBands is the stricter band table used for check deposits.
func CheckBands() (BandTable, error) {
	return NewBandTable([]Band{
		{Tier: models.TierCritical, Min: 0.90, Recommendation: "REJECT - Do not process"},
		{Tier: models.TierHigh, Min: 0.70, Recommendation: "REVIEW - Manual verification required"},
		{Tier: models.TierMedium, Min: 0.50, Recommendation: "CAUTION - Additional checks recommended"},
		{Tier: models.TierLow, Min: 0, Recommendation: "APPROVE - Low risk"},
	})
}
