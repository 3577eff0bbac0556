package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"nexus/internal/models"

	"gorm.io/gorm"
)

var ErrAssessmentNotFound = errors.New("assessment not found")

// DailySummary aggregates persisted assessments for the current day.
type DailySummary struct {
	TotalAssessments int64              `json:"total_assessments"`
	Flagged          int64              `json:"flagged"`
	CriticalAlerts   int64              `json:"critical_alerts"`
	StolenChecks     int64              `json:"stolen_checks_detected"`
	TierCounts       map[string]int64   `json:"tier_counts"`
	TierVolumes      map[string]float64 `json:"tier_volumes"`
}

// AuditRepository persists scoring outcomes and serves dashboard reads.
type AuditRepository interface {
	Record(ctx context.Context, alert *models.AlertEvent, amount float64) error
	Recent(ctx context.Context, since time.Time, limit int) ([]models.Assessment, error)
	Summary(ctx context.Context, day time.Time) (*DailySummary, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, alert *models.AlertEvent, amount float64) error {
	row := models.Assessment{
		AlertID:        alert.ID,
		Category:       alert.Category,
		RefID:          alert.RefID,
		Score:          alert.Score,
		Tier:           alert.Tier,
		Flagged:        alert.Flagged,
		Amount:         amount,
		Reasons:        strings.Join(alert.Reasons, "\n"),
		Recommendation: alert.Recommendation,
		CreatedAt:      alert.Timestamp,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *auditRepository) Recent(ctx context.Context, since time.Time, limit int) ([]models.Assessment, error) {
	var rows []models.Assessment
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND flagged = ?", since, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *auditRepository) Summary(ctx context.Context, day time.Time) (*DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	base := r.db.WithContext(ctx).Model(&models.Assessment{}).
		Where("created_at >= ? AND created_at < ?", start, end)

	summary := &DailySummary{
		TierCounts:  make(map[string]int64),
		TierVolumes: make(map[string]float64),
	}
	if err := base.Session(&gorm.Session{}).Count(&summary.TotalAssessments).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("flagged = ?", true).
		Count(&summary.Flagged).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("tier = ?", models.TierCritical).
		Count(&summary.CriticalAlerts).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("category = ? AND reasons LIKE ?", models.CategoryCheck, "%STOLEN%").
		Count(&summary.StolenChecks).Error; err != nil {
		return nil, err
	}

	var perTier []struct {
		Tier   string
		Count  int64
		Volume float64
	}
	err := base.Session(&gorm.Session{}).
		Select("tier, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS volume").
		Group("tier").
		Scan(&perTier).Error
	if err != nil {
		return nil, err
	}
	for _, t := range perTier {
		summary.TierCounts[t.Tier] = t.Count
		summary.TierVolumes[t.Tier] = t.Volume
	}
	return summary, nil
}
