// Package dashboard exposes aggregate reads over persisted assessments.
package dashboard

import (
	"context"
	"strconv"
	"strings"
	"time"

	"nexus/internal/models"
	"nexus/internal/repositories"

	"go.uber.org/zap"
)

const defaultRecentLimit = 50

// Summary is the current-day dashboard payload.
type Summary struct {
	TotalAssessments int64               `json:"total_assessments"`
	Flagged          int64               `json:"flagged_transactions"`
	CriticalAlerts   int64               `json:"critical_alerts"`
	StolenChecks     int64               `json:"stolen_checks_detected"`
	TierCounts       map[string]int64    `json:"tier_counts"`
	TierVolumes      map[string]float64  `json:"tier_volumes"`
	RecentAlerts     []models.AlertEvent `json:"recent_alerts"`
	Timestamp        time.Time           `json:"timestamp"`
}

// RecentAlerts is the payload for the recent-alerts feed.
type RecentAlerts struct {
	TimeRange  string              `json:"time_range"`
	AlertCount int                 `json:"alert_count"`
	Alerts     []models.AlertEvent `json:"alerts"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
	Recent(ctx context.Context, hours, limit int) (*RecentAlerts, error)
}

type service struct {
	audit  repositories.AuditRepository
	cache  repositories.AlertCache
	logger *zap.Logger
}

func NewService(audit repositories.AuditRepository, cache repositories.AlertCache, logger *zap.Logger) Service {
	if audit == nil {
		panic("audit repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{audit: audit, cache: cache, logger: logger}
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	now := time.Now().UTC()
	daily, err := s.audit.Summary(ctx, now)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentAlerts(ctx, now.Add(-24*time.Hour), 10)
	if err != nil {
		s.logger.Warn("recent alerts lookup failed", zap.Error(err))
		recent = []models.AlertEvent{}
	}

	return &Summary{
		TotalAssessments: daily.TotalAssessments,
		Flagged:          daily.Flagged,
		CriticalAlerts:   daily.CriticalAlerts,
		StolenChecks:     daily.StolenChecks,
		TierCounts:       daily.TierCounts,
		TierVolumes:      daily.TierVolumes,
		RecentAlerts:     recent,
		Timestamp:        now,
	}, nil
}

func (s *service) Recent(ctx context.Context, hours, limit int) (*RecentAlerts, error) {
	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	alerts, err := s.recentAlerts(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	return &RecentAlerts{
		TimeRange:  "Last " + strconv.Itoa(hours) + " hours",
		AlertCount: len(alerts),
		Alerts:     alerts,
	}, nil
}

// recentAlerts serves from the Redis feed when possible, falling back
// to the audit table.
func (s *service) recentAlerts(ctx context.Context, since time.Time, limit int) ([]models.AlertEvent, error) {
	if s.cache != nil {
		cached, err := s.cache.RecentAlerts(ctx, limit)
		if err == nil && len(cached) > 0 {
			filtered := cached[:0]
			for _, alert := range cached {
				if alert.Timestamp.After(since) {
					filtered = append(filtered, alert)
				}
			}
			return filtered, nil
		}
	}

	rows, err := s.audit.Recent(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	alerts := make([]models.AlertEvent, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, models.AlertEvent{
			ID:             row.AlertID,
			Category:       row.Category,
			RefID:          row.RefID,
			Score:          row.Score,
			Tier:           row.Tier,
			Flagged:        row.Flagged,
			Reasons:        strings.Split(row.Reasons, "\n"),
			Recommendation: row.Recommendation,
			Timestamp:      row.CreatedAt,
		})
	}
	return alerts, nil
}
