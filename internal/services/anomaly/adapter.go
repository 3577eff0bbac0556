// Package anomaly wraps the externally trained anomaly-detection model.
// The model is opaque: the adapter only consumes its numeric signal and
// never lets a model failure escape into the scoring pipeline.
package anomaly

import (
	"context"

	"go.uber.org/zap"
)

// Contribution weights folded into the rule score. The degraded weight
// applies whenever the model cannot be consulted.
const (
	DefaultCutoff  = -0.1 // signals below this are "more anomalous than normal"
	AnomalyWeight  = 0.30
	DegradedWeight = 0.15

	AnomalyReason  = "Anomaly model flagged unusual pattern"
	DegradedReason = "Anomaly model unavailable, conservative flag applied"
)

// Model produces an anomaly signal for a fixed-layout feature vector.
// Lower signals mean more anomalous, following the isolation-forest
// decision function convention.
type Model interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// Adapter converts a model signal into an additive score contribution.
type Adapter struct {
	model  Model
	cutoff float64
	logger *zap.Logger
}

// NewAdapter builds an adapter. A nil model puts the adapter in
// permanent degraded mode.
func NewAdapter(model Model, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{model: model, cutoff: DefaultCutoff, logger: logger}
}

// Contribution returns the additive weight and reason for the feature
// vector. A zero weight with an empty reason means the model saw nothing
// unusual. Failures degrade to the fixed conservative contribution;
// they are never propagated.
func (a *Adapter) Contribution(ctx context.Context, features []float64) (float64, string) {
	if a.model == nil {
		return DegradedWeight, DegradedReason
	}
	signal, err := a.model.Score(ctx, features)
	if err != nil {
		a.logger.Warn("anomaly model scoring failed, degrading", zap.Error(err))
		return DegradedWeight, DegradedReason
	}
	if signal < a.cutoff {
		return AnomalyWeight, AnomalyReason
	}
	return 0, ""
}
