package risk

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"nexus/internal/models"
	"nexus/internal/services/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default broadcast-flag thresholds. These are independent of the
// classifier bands: an event can classify "medium" and still sit below
// the broadcast bar, or vice versa. Tuned per category.
const (
	DefaultTransactionFlagThreshold = 0.65
	DefaultTellerFlagThreshold      = 0.65
	DefaultCheckFlagThreshold       = 0.60
	DefaultCashFlagThreshold        = 0.60

	geoJitterDegrees = 0.05
)

// Anomaly folds the external model's signal into the rule score.
type Anomaly interface {
	Contribution(ctx context.Context, features []float64) (float64, string)
}

// Broadcaster pushes qualifying alerts to live subscribers. Only the
// risk service calls Broadcast.
type Broadcaster interface {
	Broadcast(event *models.AlertEvent)
}

// Config holds the per-category tunables.
type Config struct {
	TransactionFlagThreshold float64
	TellerFlagThreshold      float64
	CheckFlagThreshold       float64
	CashFlagThreshold        float64

	// BranchGeo, when set, attaches a jittered location hint to alerts.
	BranchGeo *models.Location
}

// Service is the per-category scoring pipeline: rules, optional anomaly
// fold, classification, audit and broadcast.
type Service interface {
	AnalyzeTransaction(ctx context.Context, e models.TransactionEvent) (*TransactionAnalysis, error)
	AnalyzeCheck(ctx context.Context, e models.CheckEvent) (*CheckAnalysis, error)
	AnalyzeTeller(ctx context.Context, e models.TellerEvent) (*TellerAnalysis, error)
	AnalyzeCash(ctx context.Context, e models.CashHandlingEvent) (*CashAnalysis, error)
	DetectCollusion(txs []models.CollusionTransaction) CollusionReport
	UpdateBaseline(ctx context.Context, tellerID uint, avgVariance, avgTxCount float64) (models.TellerBaseline, error)
}

type service struct {
	scorer       *Scorer
	generalBands BandTable
	checkBands   BandTable
	baselines    *BaselineStore
	anomaly      Anomaly
	broadcaster  Broadcaster
	recorder     audit.Recorder
	config       Config
	logger       *zap.Logger
}

// NewService wires the scoring pipeline. Rule and band tables are
// validated here; a malformed table fails startup, not a request.
// anomaly may be nil (no model fold); broadcaster and recorder are
// required.
func NewService(baselines *BaselineStore, anomaly Anomaly, broadcaster Broadcaster, recorder audit.Recorder, config Config, logger *zap.Logger) (Service, error) {
	if baselines == nil {
		panic("baseline store is required")
	}
	if broadcaster == nil {
		panic("broadcaster is required")
	}
	if recorder == nil {
		recorder = audit.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scorer, err := NewScorer()
	if err != nil {
		return nil, err
	}
	generalBands, err := GeneralBands()
	if err != nil {
		return nil, err
	}
	checkBands, err := CheckBands()
	if err != nil {
		return nil, err
	}

	if config.TransactionFlagThreshold == 0 {
		config.TransactionFlagThreshold = DefaultTransactionFlagThreshold
	}
	if config.TellerFlagThreshold == 0 {
		config.TellerFlagThreshold = DefaultTellerFlagThreshold
	}
	if config.CheckFlagThreshold == 0 {
		config.CheckFlagThreshold = DefaultCheckFlagThreshold
	}
	if config.CashFlagThreshold == 0 {
		config.CashFlagThreshold = DefaultCashFlagThreshold
	}
	for _, threshold := range []float64{
		config.TransactionFlagThreshold, config.TellerFlagThreshold,
		config.CheckFlagThreshold, config.CashFlagThreshold,
	} {
		if threshold <= 0 || threshold > 1 {
			return nil, fmt.Errorf("%w: flag threshold %v outside (0,1]", ErrInvalidBandTable, threshold)
		}
	}

	return &service{
		scorer:       scorer,
		generalBands: generalBands,
		checkBands:   checkBands,
		baselines:    baselines,
		anomaly:      anomaly,
		broadcaster:  broadcaster,
		recorder:     recorder,
		config:       config,
		logger:       logger,
	}, nil
}

func (s *service) AnalyzeTransaction(ctx context.Context, e models.TransactionEvent) (*TransactionAnalysis, error) {
	result := s.scorer.ScoreTransaction(e)
	if s.anomaly != nil {
		features := []float64{e.Amount, float64(e.Count24h), float64(e.Locations24h)}
		weight, reason := s.anomaly.Contribution(ctx, features)
		result = fold(result, weight, reason)
	}

	tier, recommendation := s.generalBands.Classify(result.Score)
	flagged := result.Score >= s.config.TransactionFlagThreshold
	now := time.Now().UTC()

	analysis := &TransactionAnalysis{
		TransactionID:  e.TransactionID,
		Amount:         e.Amount,
		RiskScore:      result.Score,
		RiskLevel:      tier,
		IsFlagged:      flagged,
		Reasons:        result.Reasons,
		Recommendation: recommendation,
		Timestamp:      now,
	}
	s.dispatch(ctx, &models.AlertEvent{
		ID:             uuid.NewString(),
		Category:       models.CategoryTransaction,
		RefID:          e.TransactionID,
		Score:          result.Score,
		Tier:           tier,
		Flagged:        flagged,
		Reasons:        result.Reasons,
		Recommendation: recommendation,
		Timestamp:      now,
	}, e.Amount)
	return analysis, nil
}

func (s *service) AnalyzeCheck(ctx context.Context, e models.CheckEvent) (*CheckAnalysis, error) {
	result := s.scorer.ScoreCheck(e)
	tier, recommendation := s.checkBands.Classify(result.Score)
	flagged := result.Score >= s.config.CheckFlagThreshold
	now := time.Now().UTC()

	analysis := &CheckAnalysis{
		CheckNumber:         e.CheckNumber,
		RiskScore:           result.Score,
		RiskLevel:           tier,
		IsFlagged:           flagged,
		FraudIndicators:     result.Reasons,
		SignatureConfidence: e.SignatureScore,
		Recommendation:      recommendation,
		Timestamp:           now,
	}
	s.dispatch(ctx, &models.AlertEvent{
		ID:             uuid.NewString(),
		Category:       models.CategoryCheck,
		RefID:          e.CheckNumber,
		Score:          result.Score,
		Tier:           tier,
		Flagged:        flagged,
		Reasons:        result.Reasons,
		Recommendation: recommendation,
		Timestamp:      now,
	}, e.Amount)
	return analysis, nil
}

func (s *service) AnalyzeTeller(ctx context.Context, e models.TellerEvent) (*TellerAnalysis, error) {
	baseline := s.baselines.Get(ctx, e.TellerID)
	result, z := s.scorer.ScoreTeller(e, baseline)
	tier, recommendation := s.generalBands.Classify(result.Score)
	flagged := result.Score >= s.config.TellerFlagThreshold
	now := time.Now().UTC()

	analysis := &TellerAnalysis{
		TellerID:       e.TellerID,
		RiskScore:      result.Score,
		RiskLevel:      tier,
		IsFlagged:      flagged,
		Anomalies:      result.Reasons,
		ZScore:         z,
		Recommendation: recommendation,
		Timestamp:      now,
	}
	s.dispatch(ctx, &models.AlertEvent{
		ID:             uuid.NewString(),
		Category:       models.CategoryTeller,
		RefID:          fmt.Sprintf("teller-%d", e.TellerID),
		Score:          result.Score,
		Tier:           tier,
		Flagged:        flagged,
		Reasons:        result.Reasons,
		Recommendation: recommendation,
		Timestamp:      now,
	}, e.CashVariance)
	return analysis, nil
}

func (s *service) AnalyzeCash(ctx context.Context, e models.CashHandlingEvent) (*CashAnalysis, error) {
	result := s.scorer.ScoreCash(e)
	tier, recommendation := s.generalBands.Classify(result.Score)
	flagged := result.Score >= s.config.CashFlagThreshold
	discrepancy := abs(e.ExpectedAmount - e.ActualAmount)
	now := time.Now().UTC()

	analysis := &CashAnalysis{
		TellerID:       e.TellerID,
		RiskScore:      result.Score,
		RiskLevel:      tier,
		IsFlagged:      flagged,
		Issues:         result.Reasons,
		ExpectedAmount: e.ExpectedAmount,
		ActualAmount:   e.ActualAmount,
		Discrepancy:    discrepancy,
		Recommendation: recommendation,
		Timestamp:      now,
	}
	s.dispatch(ctx, &models.AlertEvent{
		ID:             uuid.NewString(),
		Category:       models.CategoryCashHandling,
		RefID:          fmt.Sprintf("teller-%d", e.TellerID),
		Score:          result.Score,
		Tier:           tier,
		Flagged:        flagged,
		Reasons:        result.Reasons,
		Recommendation: recommendation,
		Timestamp:      now,
	}, discrepancy)
	return analysis, nil
}

func (s *service) DetectCollusion(txs []models.CollusionTransaction) CollusionReport {
	return DetectCollusion(txs)
}

func (s *service) UpdateBaseline(ctx context.Context, tellerID uint, avgVariance, avgTxCount float64) (models.TellerBaseline, error) {
	return s.baselines.Update(ctx, tellerID, avgVariance, avgTxCount)
}

// dispatch records the outcome and pushes flagged alerts. The audit
// capability is best-effort; the broadcaster applies its own tier gate.
func (s *service) dispatch(ctx context.Context, event *models.AlertEvent, amount float64) {
	if s.config.BranchGeo != nil {
		event.Geo = jitter(*s.config.BranchGeo)
	}
	s.recorder.Record(ctx, event, amount)
	if event.Flagged {
		s.broadcaster.Broadcast(event)
	}
}

// fold adds the anomaly contribution to a rule score, replacing the
// "no indicators" sentinel when the model is the only signal.
func fold(result ScoreResult, weight float64, reason string) ScoreResult {
	if weight == 0 {
		return result
	}
	score := result.Score + weight
	if score > 1.0 {
		score = 1.0
	}
	reasons := result.Reasons
	if len(reasons) == 1 && reasons[0] == NoIndicators {
		reasons = nil
	}
	reasons = append(reasons, reason)
	return ScoreResult{Score: score, Reasons: reasons}
}

// jitter offsets the branch location by up to ±0.05 degrees so the
// dashboard map shows an approximate, not exact, origin.
func jitter(loc models.Location) *models.Location {
	return &models.Location{
		Latitude:  loc.Latitude + (rand.Float64()*2-1)*geoJitterDegrees,
		Longitude: loc.Longitude + (rand.Float64()*2-1)*geoJitterDegrees,
		Address:   loc.Address,
	}
}
