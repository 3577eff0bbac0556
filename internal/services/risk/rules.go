package risk

import (
	"fmt"

	"nexus/internal/models"
)

// Rule-set constants. These mirror the thresholds the branch fraud team
// tuned in production; they are fixed at build time.
const (
	avgMultiplier           = 5.0  // amount vs rolling average
	avgMultiplierHighVolume = 10.0 // relaxed for high-volume accounts
	velocityThreshold       = 20   // transactions in 24h
	velocityThresholdHV     = 50
	locationThreshold       = 5
	largeAmountCeiling      = 100000.0

	signatureMismatchCutoff  = 0.70
	signatureUncertainCutoff = 0.85

	tellerCriticalZ     = 3.0
	tellerHighZ         = 2.0
	tellerTxMultiplier  = 2.0
	tellerLargeTxLimit  = 5
	tellerAfterHoursMax = 3.0
	tellerConsecDaysMax = 2

	cashDiscrepancyPct = 0.05
	cashRepeatLimit    = 3

	// NoIndicators is the sentinel reason reported when no rule fires.
	NoIndicators = "No indicators"
)

func transactionRules() []Rule[models.TransactionEvent] {
	return []Rule[models.TransactionEvent]{
		{
			Name:   "AMOUNT_VS_AVERAGE",
			Weight: 0.40,
			Match: func(e models.TransactionEvent) bool {
				return e.AvgAmount > 0 && e.Amount > e.AvgAmount*avgMult(e)
			},
			Reason: func(e models.TransactionEvent) string {
				return fmt.Sprintf("Amount %.0f is %.0fx customer average %.0f",
					e.Amount, avgMult(e), e.AvgAmount)
			},
		},
		{
			Name:   "HIGH_VELOCITY",
			Weight: 0.30,
			Match: func(e models.TransactionEvent) bool {
				return e.Count24h > velocityLimit(e)
			},
			Reason: func(e models.TransactionEvent) string {
				return fmt.Sprintf("High frequency: %d transactions in 24h", e.Count24h)
			},
		},
		{
			Name:   "MULTI_LOCATION",
			Weight: 0.20,
			Match: func(e models.TransactionEvent) bool {
				return e.Locations24h > locationThreshold
			},
			Reason: func(e models.TransactionEvent) string {
				return fmt.Sprintf("Used from %d distinct locations in 24h", e.Locations24h)
			},
		},
		{
			Name:   "LARGE_AMOUNT",
			Weight: 0.20,
			Match: func(e models.TransactionEvent) bool {
				return e.Amount > largeAmountCeiling
			},
			Reason: func(e models.TransactionEvent) string {
				return fmt.Sprintf("Large amount: %.0f", e.Amount)
			},
		},
	}
}

func avgMult(e models.TransactionEvent) float64 {
	if e.HighVolumeAcct {
		return avgMultiplierHighVolume
	}
	return avgMultiplier
}

func velocityLimit(e models.TransactionEvent) int {
	if e.HighVolumeAcct {
		return velocityThresholdHV
	}
	return velocityThreshold
}

func checkRules() []Rule[models.CheckEvent] {
	return []Rule[models.CheckEvent]{
		{
			Name:   "STOLEN_CHECK",
			Weight: 1.0, // saturates the score on its own
			Match:  func(e models.CheckEvent) bool { return e.IsStolen },
			Reason: func(models.CheckEvent) string { return "Check reported as STOLEN" },
		},
		{
			Name:   "DUPLICATE_CHECK",
			Weight: 0.50,
			Match:  func(e models.CheckEvent) bool { return e.IsDuplicate },
			Reason: func(models.CheckEvent) string { return "Duplicate check detected" },
		},
		{
			Name:   "ALTERED_CHECK",
			Weight: 0.35,
			Match:  func(e models.CheckEvent) bool { return e.IsAltered },
			Reason: func(models.CheckEvent) string { return "Check shows alteration signs" },
		},
		{
			Name:   "SIGNATURE_MISMATCH",
			Weight: 0.40,
			Match:  func(e models.CheckEvent) bool { return e.SignatureScore < signatureMismatchCutoff },
			Reason: func(e models.CheckEvent) string {
				return fmt.Sprintf("Signature mismatch (%.0f%% confidence)", e.SignatureScore*100)
			},
		},
		{
			Name:   "SIGNATURE_UNCERTAIN",
			Weight: 0.15,
			Match: func(e models.CheckEvent) bool {
				return e.SignatureScore >= signatureMismatchCutoff &&
					e.SignatureScore < signatureUncertainCutoff
			},
			Reason: func(e models.CheckEvent) string {
				return fmt.Sprintf("Signature uncertain (%.0f%% confidence)", e.SignatureScore*100)
			},
		},
	}
}

func tellerRules() []Rule[tellerContext] {
	return []Rule[tellerContext]{
		{
			Name:   "CRITICAL_CASH_VARIANCE",
			Weight: 0.50,
			Match:  func(c tellerContext) bool { return c.ZScore > tellerCriticalZ },
			Reason: func(c tellerContext) string {
				return fmt.Sprintf("CRITICAL_CASH_VARIANCE: variance %.0f is %.1f standard deviations above normal",
					abs(c.Event.CashVariance), c.ZScore)
			},
		},
		{
			Name:   "HIGH_CASH_VARIANCE",
			Weight: 0.30,
			Match: func(c tellerContext) bool {
				return c.ZScore > tellerHighZ && c.ZScore <= tellerCriticalZ
			},
			Reason: func(c tellerContext) string {
				return fmt.Sprintf("HIGH_CASH_VARIANCE: variance %.0f significantly above normal %.0f",
					abs(c.Event.CashVariance), abs(c.Baseline.AvgVariance))
			},
		},
		{
			Name:   "HIGH_TRANSACTION_VOLUME",
			Weight: 0.25,
			Match: func(c tellerContext) bool {
				return float64(c.Event.TransactionCount) > c.Baseline.AvgTxCount*tellerTxMultiplier
			},
			Reason: func(c tellerContext) string {
				return fmt.Sprintf("HIGH_TRANSACTION_VOLUME: processed %d transactions (2x normal %.0f)",
					c.Event.TransactionCount, c.Baseline.AvgTxCount)
			},
		},
		{
			Name:   "UNUSUAL_LARGE_TRANSACTIONS",
			Weight: 0.20,
			Match:  func(c tellerContext) bool { return c.Event.LargeTxCount > tellerLargeTxLimit },
			Reason: func(c tellerContext) string {
				return fmt.Sprintf("UNUSUAL_LARGE_TRANSACTIONS: %d large transactions processed",
					c.Event.LargeTxCount)
			},
		},
		{
			Name:   "UNUSUAL_HOURS",
			Weight: 0.15,
			Match:  func(c tellerContext) bool { return c.Event.AfterHoursWork > tellerAfterHoursMax },
			Reason: func(c tellerContext) string {
				return fmt.Sprintf("UNUSUAL_HOURS: worked %.1f hours after normal business hours",
					c.Event.AfterHoursWork)
			},
		},
		{
			Name:   "PATTERN_OF_VARIANCE",
			Weight: 0.30,
			Match:  func(c tellerContext) bool { return c.Event.ConsecVarianceDays > tellerConsecDaysMax },
			Reason: func(c tellerContext) string {
				return fmt.Sprintf("PATTERN_OF_VARIANCE: cash variance on %d consecutive days",
					c.Event.ConsecVarianceDays)
			},
		},
	}
}

func cashRules() []Rule[models.CashHandlingEvent] {
	return []Rule[models.CashHandlingEvent]{
		{
			Name:   "SIGNIFICANT_DISCREPANCY",
			Weight: 0.40,
			Match: func(e models.CashHandlingEvent) bool {
				return abs(e.ExpectedAmount-e.ActualAmount) > e.ExpectedAmount*cashDiscrepancyPct
			},
			Reason: func(e models.CashHandlingEvent) string {
				return fmt.Sprintf("SIGNIFICANT_DISCREPANCY: expected %.0f, found %.0f",
					e.ExpectedAmount, e.ActualAmount)
			},
		},
		{
			Name:   "REPEAT_DISCREPANCIES",
			Weight: 0.50,
			Match:  func(e models.CashHandlingEvent) bool { return e.PeriodDiscrepancies > cashRepeatLimit },
			Reason: func(e models.CashHandlingEvent) string {
				return fmt.Sprintf("REPEAT_DISCREPANCIES: %d discrepancies this period",
					e.PeriodDiscrepancies)
			},
		},
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
