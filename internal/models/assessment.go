package models

import (
	"time"

	"gorm.io/gorm"
)

// Assessment is the persisted audit record for one scoring pass.
// Written by the audit recorder; dashboard aggregates are computed over
// these rows.
type Assessment struct {
	ID             uint    `gorm:"primarykey"`
	AlertID        string  `gorm:"uniqueIndex;not null"`
	Category       string  `gorm:"index;not null"`
	RefID          string  `gorm:"index"`
	Score          float64 `gorm:"not null"`
	Tier           string  `gorm:"index;not null"`
	Flagged        bool    `gorm:"index;not null"`
	Amount         float64
	Reasons        string `gorm:"type:text"` // newline-joined
	Recommendation string
	CreatedAt      time.Time `gorm:"index"`
}

// TellerBaseline is the rolling per-teller profile used by the teller
// rule set. Updated only through an explicit baseline update, never as a
// side effect of scoring.
type TellerBaseline struct {
	TellerID    uint    `gorm:"primarykey"`
	AvgVariance float64 `gorm:"not null"`
	AvgTxCount  float64 `gorm:"not null"`
	UpdatedAt   time.Time
}

// User is an analyst account for the dashboard and live alert feed.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null"`
	Name         string
	Role         string `gorm:"default:'analyst'"`
	TokenVersion int    `gorm:"default:1"`
	LastLoginAt  time.Time
}
