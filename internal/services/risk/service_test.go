package risk

import (
	"context"
	"sync"
	"testing"

	"nexus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func (b *fakeBroadcaster) Broadcast(event *models.AlertEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, *event)
}

func (b *fakeBroadcaster) sent() []models.AlertEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.AlertEvent, len(b.events))
	copy(out, b.events)
	return out
}

type fakeRecorder struct {
	mu      sync.Mutex
	events  []models.AlertEvent
	amounts []float64
}

func (r *fakeRecorder) Record(ctx context.Context, event *models.AlertEvent, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	r.amounts = append(r.amounts, amount)
}

type fixedAnomaly struct {
	weight float64
	reason string
}

func (a fixedAnomaly) Contribution(ctx context.Context, features []float64) (float64, string) {
	return a.weight, a.reason
}

func newTestService(t *testing.T, anomaly Anomaly, config Config) (Service, *fakeBroadcaster, *fakeRecorder) {
	t.Helper()
	broadcaster := &fakeBroadcaster{}
	recorder := &fakeRecorder{}
	svc, err := NewService(NewBaselineStore(nil, nil, nil), anomaly, broadcaster, recorder, config, nil)
	require.NoError(t, err)
	return svc, broadcaster, recorder
}

func TestNewService(t *testing.T) {
	t.Run("nil baseline store panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewService(nil, nil, &fakeBroadcaster{}, nil, Config{}, nil)
		})
	})

	t.Run("nil broadcaster panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewService(NewBaselineStore(nil, nil, nil), nil, nil, nil, Config{}, nil)
		})
	})

	t.Run("threshold outside range rejected", func(t *testing.T) {
		_, err := NewService(NewBaselineStore(nil, nil, nil), nil, &fakeBroadcaster{}, nil,
			Config{TransactionFlagThreshold: 1.5}, nil)
		assert.ErrorIs(t, err, ErrInvalidBandTable)
	})

	t.Run("zero thresholds take defaults", func(t *testing.T) {
		svc, err := NewService(NewBaselineStore(nil, nil, nil), nil, &fakeBroadcaster{}, nil, Config{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestAnalyzeTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("clean transaction is low and unflagged", func(t *testing.T) {
		svc, broadcaster, recorder := newTestService(t, nil, Config{})
		analysis, err := svc.AnalyzeTransaction(ctx, models.TransactionEvent{
			TransactionID: "tx-1",
			Amount:        100,
			AvgAmount:     90,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TierLow, analysis.RiskLevel)
		assert.False(t, analysis.IsFlagged)
		assert.Equal(t, []string{NoIndicators}, analysis.Reasons)

		// every outcome is recorded, only flagged ones broadcast
		assert.Len(t, recorder.events, 1)
		assert.Empty(t, broadcaster.sent())
	})

	t.Run("saturated transaction is critical and broadcast", func(t *testing.T) {
		svc, broadcaster, recorder := newTestService(t, nil, Config{})
		analysis, err := svc.AnalyzeTransaction(ctx, models.TransactionEvent{
			TransactionID: "tx-2",
			Amount:        500000,
			AvgAmount:     5000,
			Count24h:      100,
			Locations24h:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, analysis.RiskScore)
		assert.Equal(t, models.TierCritical, analysis.RiskLevel)
		assert.True(t, analysis.IsFlagged)
		assert.Equal(t, "reject_immediately", analysis.Recommendation)

		sent := broadcaster.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "tx-2", sent[0].RefID)
		assert.Equal(t, models.CategoryTransaction, sent[0].Category)
		assert.Equal(t, 500000.0, recorder.amounts[0])
	})

	t.Run("anomaly contribution is additive", func(t *testing.T) {
		svc, _, _ := newTestService(t, fixedAnomaly{weight: 0.30, reason: "model flag"}, Config{})
		analysis, err := svc.AnalyzeTransaction(ctx, models.TransactionEvent{
			TransactionID: "tx-3",
			Amount:        100,
			AvgAmount:     90,
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.30, analysis.RiskScore, 1e-9)
		// sentinel replaced when the model is the only signal
		assert.Equal(t, []string{"model flag"}, analysis.Reasons)
	})

	t.Run("zero anomaly weight leaves score untouched", func(t *testing.T) {
		svc, _, _ := newTestService(t, fixedAnomaly{}, Config{})
		analysis, err := svc.AnalyzeTransaction(ctx, models.TransactionEvent{
			TransactionID: "tx-4",
			Amount:        100,
			AvgAmount:     90,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, analysis.RiskScore)
		assert.Equal(t, []string{NoIndicators}, analysis.Reasons)
	})

	t.Run("flagging and tier are independent", func(t *testing.T) {
		// amount rule alone gives 0.40: medium under a 0.3 bar, flagged
		svc, broadcaster, _ := newTestService(t, nil, Config{TransactionFlagThreshold: 0.3})
		analysis, err := svc.AnalyzeTransaction(ctx, models.TransactionEvent{
			TransactionID: "tx-5",
			Amount:        60000,
			AvgAmount:     1000,
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.40, analysis.RiskScore, 1e-9)
		assert.Equal(t, models.TierLow, analysis.RiskLevel)
		assert.True(t, analysis.IsFlagged)

		// flagged but below the high tier gate: recorded, not broadcast
		// by the real broadcaster; the fake accepts everything
		assert.Len(t, broadcaster.sent(), 1)
	})
}

func TestAnalyzeCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("stolen check is critical with reject recommendation", func(t *testing.T) {
		svc, broadcaster, _ := newTestService(t, nil, Config{})
		analysis, err := svc.AnalyzeCheck(ctx, models.CheckEvent{
			CheckNumber:    "chk-1",
			Amount:         2500,
			IsStolen:       true,
			SignatureScore: 0.95,
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, analysis.RiskScore)
		assert.Equal(t, models.TierCritical, analysis.RiskLevel)
		assert.Equal(t, "REJECT - Do not process", analysis.Recommendation)
		assert.True(t, analysis.IsFlagged)
		assert.Len(t, broadcaster.sent(), 1)
	})

	t.Run("clean check approves", func(t *testing.T) {
		svc, _, _ := newTestService(t, nil, Config{})
		analysis, err := svc.AnalyzeCheck(ctx, models.CheckEvent{
			CheckNumber:    "chk-2",
			SignatureScore: 0.95,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TierLow, analysis.RiskLevel)
		assert.Equal(t, "APPROVE - Low risk", analysis.Recommendation)
		assert.Equal(t, []string{NoIndicators}, analysis.FraudIndicators)
	})
}

func TestAnalyzeTeller(t *testing.T) {
	ctx := context.Background()

	t.Run("extreme variance against default baseline", func(t *testing.T) {
		svc, _, _ := newTestService(t, nil, Config{})
		analysis, err := svc.AnalyzeTeller(ctx, models.TellerEvent{
			TellerID:     7,
			CashVariance: 2000,
		})
		require.NoError(t, err)
		assert.InDelta(t, 10.0, analysis.ZScore, 1e-9)
		assert.InDelta(t, 0.50, analysis.RiskScore, 1e-9)
		assert.Equal(t, models.TierMedium, analysis.RiskLevel)
	})

	t.Run("updated baseline changes subsequent scoring", func(t *testing.T) {
		svc, _, _ := newTestService(t, nil, Config{})
		_, err := svc.UpdateBaseline(ctx, 8, 2000, 40)
		require.NoError(t, err)

		analysis, err := svc.AnalyzeTeller(ctx, models.TellerEvent{
			TellerID:     8,
			CashVariance: 2000,
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, analysis.ZScore, 1e-9)
		assert.Equal(t, 0.0, analysis.RiskScore)
	})
}

func TestAnalyzeCash(t *testing.T) {
	ctx := context.Background()

	svc, broadcaster, recorder := newTestService(t, nil, Config{})
	analysis, err := svc.AnalyzeCash(ctx, models.CashHandlingEvent{
		TellerID:            3,
		ExpectedAmount:      10000,
		ActualAmount:        9000,
		PeriodDiscrepancies: 5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.90, analysis.RiskScore, 1e-9)
	assert.Equal(t, 1000.0, analysis.Discrepancy)
	assert.Equal(t, models.TierCritical, analysis.RiskLevel)
	assert.True(t, analysis.IsFlagged)
	assert.Len(t, broadcaster.sent(), 1)
	assert.Equal(t, 1000.0, recorder.amounts[0])
}

func TestGeoJitter(t *testing.T) {
	geo := &models.Location{Latitude: 40.7128, Longitude: -74.0060, Address: "Main Branch"}
	broadcaster := &fakeBroadcaster{}
	svc, err := NewService(NewBaselineStore(nil, nil, nil), nil, broadcaster, nil,
		Config{BranchGeo: geo}, nil)
	require.NoError(t, err)

	_, err = svc.AnalyzeCheck(context.Background(), models.CheckEvent{
		CheckNumber: "chk-geo",
		IsStolen:    true,
	})
	require.NoError(t, err)

	sent := broadcaster.sent()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Geo)
	assert.InDelta(t, geo.Latitude, sent[0].Geo.Latitude, geoJitterDegrees)
	assert.InDelta(t, geo.Longitude, sent[0].Geo.Longitude, geoJitterDegrees)
	assert.Equal(t, "Main Branch", sent[0].Geo.Address)
	// the exact branch coordinates are never broadcast unchanged
	assert.NotEqual(t, geo, sent[0].Geo)
}

func TestFold(t *testing.T) {
	t.Run("replaces sentinel when model is the only signal", func(t *testing.T) {
		result := fold(ScoreResult{Score: 0, Reasons: []string{NoIndicators}}, 0.15, "degraded")
		assert.InDelta(t, 0.15, result.Score, 1e-9)
		assert.Equal(t, []string{"degraded"}, result.Reasons)
	})

	t.Run("appends to real reasons", func(t *testing.T) {
		result := fold(ScoreResult{Score: 0.4, Reasons: []string{"rule hit"}}, 0.30, "model flag")
		assert.InDelta(t, 0.70, result.Score, 1e-9)
		assert.Equal(t, []string{"rule hit", "model flag"}, result.Reasons)
	})

	t.Run("clips at one", func(t *testing.T) {
		result := fold(ScoreResult{Score: 0.9, Reasons: []string{"rule hit"}}, 0.30, "model flag")
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("zero weight is a no-op", func(t *testing.T) {
		in := ScoreResult{Score: 0.4, Reasons: []string{"rule hit"}}
		assert.Equal(t, in, fold(in, 0, ""))
	})
}
