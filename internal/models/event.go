package models

// Event categories
const (
	CategoryTransaction  = "transaction"
	CategoryCheck        = "check"
	CategoryTeller       = "teller"
	CategoryCashHandling = "cash_handling"
)

// TransactionEvent is a customer transaction submitted for scoring.
// Fields are validated at the HTTP boundary; the scorer assumes they
// are well-typed.
type TransactionEvent struct {
	TransactionID  string  `json:"transaction_id"`
	AccountID      string  `json:"account_id"`
	Amount         float64 `json:"amount"`
	AvgAmount      float64 `json:"avg_transaction_amount"`
	Count24h       int     `json:"transaction_count_24h"`
	Locations24h   int     `json:"unique_locations_24h"`
	IPAddress      string  `json:"ip_address"`
	HighVolumeAcct bool    `json:"high_volume_account"`
}

// CheckEvent is a deposited check submitted for fraud indicators.
type CheckEvent struct {
	CheckNumber    string  `json:"check_number"`
	Amount         float64 `json:"amount"`
	IsStolen       bool    `json:"is_stolen"`
	IsDuplicate    bool    `json:"is_duplicate"`
	IsAltered      bool    `json:"is_altered"`
	SignatureScore float64 `json:"signature_match_score"`
}

// TellerEvent is one teller's end-of-day metrics.
type TellerEvent struct {
	TellerID           uint    `json:"teller_id"`
	CashVariance       float64 `json:"daily_cash_variance"`
	TransactionCount   int     `json:"transaction_count"`
	LargeTxCount       int     `json:"large_transactions_count"`
	AfterHoursWork     float64 `json:"after_hours_work"`
	ConsecVarianceDays int     `json:"consecutive_variance_days"`
}

// CashHandlingEvent is a drawer reconciliation record.
type CashHandlingEvent struct {
	TellerID            uint    `json:"teller_id"`
	ExpectedAmount      float64 `json:"expected_amount"`
	ActualAmount        float64 `json:"actual_amount"`
	PeriodDiscrepancies int     `json:"discrepancies_this_month"`
}

// CollusionTransaction is one row of a teller/account transaction history
// submitted for pattern detection.
type CollusionTransaction struct {
	TellerID  uint    `json:"teller_id"`
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	CreatedAt int64   `json:"created_at"` // unix seconds
}
