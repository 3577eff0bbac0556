package risk

import (
	"fmt"
	"time"

	"nexus/internal/models"
)

const (
	structuringMinTx   = 5
	structuringWindow  = 7 * 24 * time.Hour
	roundAmountShare   = 0.7
	rapidLargeMinCount = 2
)

// CollusionPattern is one suspicious teller/account relationship.
type CollusionPattern struct {
	Pattern     string  `json:"pattern"`
	Severity    string  `json:"severity"`
	TellerID    uint    `json:"teller_id"`
	AccountID   string  `json:"account_id"`
	Description string  `json:"description"`
	Risk        float64 `json:"risk"`
}

// CollusionReport summarizes pattern detection over a transaction batch.
type CollusionReport struct {
	PatternsDetected bool               `json:"patterns_detected"`
	PatternCount     int                `json:"pattern_count"`
	Patterns         []CollusionPattern `json:"patterns"`
	Severity         string             `json:"severity"`
	Timestamp        time.Time          `json:"timestamp"`
}

// DetectCollusion groups transactions by (teller, account) pair and
// flags structuring, round-amount dominance and rapid large transfers.
// Pairs with fewer than two transactions are ignored.
func DetectCollusion(transactions []models.CollusionTransaction) CollusionReport {
	type pairKey struct {
		tellerID  uint
		accountID string
	}
	pairs := make(map[pairKey][]models.CollusionTransaction)
	var order []pairKey
	for _, tx := range transactions {
		key := pairKey{tx.TellerID, tx.AccountID}
		if _, seen := pairs[key]; !seen {
			order = append(order, key)
		}
		pairs[key] = append(pairs[key], tx)
	}

	var patterns []CollusionPattern
	for _, key := range order {
		txs := pairs[key]
		if len(txs) < 2 {
			continue
		}

		if len(txs) >= structuringMinTx {
			span := time.Duration(txs[len(txs)-1].CreatedAt-txs[0].CreatedAt) * time.Second
			if span >= 0 && span <= structuringWindow {
				days := int(span.Hours() / 24)
				patterns = append(patterns, CollusionPattern{
					Pattern:     "STRUCTURING_SUSPECTED",
					Severity:    models.TierHigh,
					TellerID:    key.tellerID,
					AccountID:   key.accountID,
					Description: fmt.Sprintf("%d transactions in %d days", len(txs), days),
					Risk:        0.4,
				})
			}
		}

		roundCount := 0
		var large []models.CollusionTransaction
		for _, tx := range txs {
			if tx.Amount > 0 && int64(tx.Amount)%1000 == 0 && tx.Amount == float64(int64(tx.Amount)) {
				roundCount++
			}
			if tx.Amount > largeAmountCeiling {
				large = append(large, tx)
			}
		}
		if float64(roundCount) > float64(len(txs))*roundAmountShare {
			patterns = append(patterns, CollusionPattern{
				Pattern:     "ROUND_AMOUNTS",
				Severity:    models.TierMedium,
				TellerID:    key.tellerID,
				AccountID:   key.accountID,
				Description: fmt.Sprintf("%d/%d round amounts", roundCount, len(txs)),
				Risk:        0.2,
			})
		}
		if len(large) > rapidLargeMinCount {
			patterns = append(patterns, CollusionPattern{
				Pattern:     "RAPID_LARGE_TRANSFERS",
				Severity:    models.TierHigh,
				TellerID:    key.tellerID,
				AccountID:   key.accountID,
				Description: fmt.Sprintf("%d large transfers", len(large)),
				Risk:        0.35,
			})
		}
	}

	severity := models.TierLow
	if len(patterns) > 0 {
		severity = models.TierHigh
	}
	return CollusionReport{
		PatternsDetected: len(patterns) > 0,
		PatternCount:     len(patterns),
		Patterns:         patterns,
		Severity:         severity,
		Timestamp:        time.Now().UTC(),
	}
}
