package risk

import (
	"time"

	"nexus/internal/models"
)

// Rule is a named weighted predicate over one event category. Matched
// rule weights sum into the cumulative score; rule order fixes the order
// reasons are reported, nothing else.
type Rule[E any] struct {
	Name   string
	Weight float64
	Match  func(E) bool
	Reason func(E) string
}

// ScoreResult is the outcome of one scoring pass. Score is the sum of
// matched rule weights clipped to [0,1]. Reasons is never empty; when no
// rule fires it holds a single "no indicators" sentinel.
type ScoreResult struct {
	Score   float64  `json:"risk_score"`
	Reasons []string `json:"reasons"`
}

// TransactionAnalysis is the response for a transaction scoring pass.
type TransactionAnalysis struct {
	TransactionID  string    `json:"transaction_id"`
	Amount         float64   `json:"amount"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	IsFlagged      bool      `json:"is_flagged"`
	Reasons        []string  `json:"reasons"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}

// CheckAnalysis is the response for a check scoring pass.
type CheckAnalysis struct {
	CheckNumber         string    `json:"check_number"`
	RiskScore           float64   `json:"risk_score"`
	RiskLevel           string    `json:"risk_level"`
	IsFlagged           bool      `json:"is_flagged"`
	FraudIndicators     []string  `json:"fraud_indicators"`
	SignatureConfidence float64   `json:"signature_confidence"`
	Recommendation      string    `json:"recommendation"`
	Timestamp           time.Time `json:"timestamp"`
}

// TellerAnalysis is the response for a teller behavior pass.
type TellerAnalysis struct {
	TellerID       uint      `json:"teller_id"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	IsFlagged      bool      `json:"is_flagged"`
	Anomalies      []string  `json:"anomalies"`
	ZScore         float64   `json:"z_score"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}

// CashAnalysis is the response for a cash handling pass.
type CashAnalysis struct {
	TellerID       uint      `json:"teller_id"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	IsFlagged      bool      `json:"is_flagged"`
	Issues         []string  `json:"issues"`
	ExpectedAmount float64   `json:"expected_amount"`
	ActualAmount   float64   `json:"actual_amount"`
	Discrepancy    float64   `json:"discrepancy"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}

// tellerContext pairs a teller event with the rolling baseline it is
// scored against. The z-score is precomputed so every rule sees the
// same value.
type tellerContext struct {
	Event    models.TellerEvent
	Baseline models.TellerBaseline
	ZScore   float64
}
