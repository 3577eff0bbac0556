package anomaly

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubModel struct {
	signal float64
	err    error
	calls  int
}

func (m *stubModel) Score(ctx context.Context, features []float64) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.signal, nil
}

func TestAdapterContribution(t *testing.T) {
	ctx := context.Background()
	features := []float64{5000, 3, 1}

	t.Run("nil model degrades permanently", func(t *testing.T) {
		adapter := NewAdapter(nil, nil)
		weight, reason := adapter.Contribution(ctx, features)
		assert.Equal(t, DegradedWeight, weight)
		assert.Equal(t, DegradedReason, reason)
	})

	t.Run("anomalous signal contributes full weight", func(t *testing.T) {
		adapter := NewAdapter(&stubModel{signal: -0.5}, nil)
		weight, reason := adapter.Contribution(ctx, features)
		assert.Equal(t, AnomalyWeight, weight)
		assert.Equal(t, AnomalyReason, reason)
	})

	t.Run("normal signal contributes nothing", func(t *testing.T) {
		adapter := NewAdapter(&stubModel{signal: 0.2}, nil)
		weight, reason := adapter.Contribution(ctx, features)
		assert.Equal(t, 0.0, weight)
		assert.Empty(t, reason)
	})

	t.Run("signal at the cutoff is normal", func(t *testing.T) {
		adapter := NewAdapter(&stubModel{signal: DefaultCutoff}, nil)
		weight, _ := adapter.Contribution(ctx, features)
		assert.Equal(t, 0.0, weight)
	})

	t.Run("model error degrades conservatively", func(t *testing.T) {
		adapter := NewAdapter(&stubModel{err: errors.New("session closed")}, nil)
		weight, reason := adapter.Contribution(ctx, features)
		assert.Equal(t, DegradedWeight, weight)
		assert.Equal(t, DegradedReason, reason)
	})

	t.Run("degraded contribution never exceeds the anomaly weight", func(t *testing.T) {
		assert.Less(t, DegradedWeight, AnomalyWeight)
	})

	t.Run("repeated failures stay deterministic", func(t *testing.T) {
		model := &stubModel{err: errors.New("session closed")}
		adapter := NewAdapter(model, nil)
		for i := 0; i < 5; i++ {
			weight, reason := adapter.Contribution(ctx, features)
			assert.Equal(t, DegradedWeight, weight)
			assert.Equal(t, DegradedReason, reason)
		}
		assert.Equal(t, 5, model.calls)
	})
}
