package models

import "time"

// Risk tiers, ordered from least to most severe.
const (
	TierLow      = "low"
	TierMedium   = "medium"
	TierHigh     = "high"
	TierCritical = "critical"
)

// Location is a coarse geographic hint attached to broadcast alerts.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// AlertEvent is the record pushed to live subscribers and handed to the
// audit recorder. Immutable after construction.
type AlertEvent struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	RefID          string    `json:"ref_id,omitempty"` // transaction id, check number or teller id
	Score          float64   `json:"risk_score"`
	Tier           string    `json:"risk_level"`
	Flagged        bool      `json:"is_flagged"`
	Reasons        []string  `json:"reasons"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
	Geo            *Location `json:"geo,omitempty"`
}
