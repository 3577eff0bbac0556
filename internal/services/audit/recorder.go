// Package audit persists scoring outcomes for the dashboard and the
// downstream compliance feed. Recording is best-effort: a failing sink
// is logged and skipped, never surfaced to the scoring pipeline.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"nexus/internal/models"
	"nexus/internal/repositories"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Recorder is the injected audit capability. Implementations must
// tolerate sink failures without altering the caller's response.
type Recorder interface {
	Record(ctx context.Context, alert *models.AlertEvent, amount float64)
}

type recorder struct {
	repo   repositories.AuditRepository
	cache  repositories.AlertCache
	writer *kafka.Writer // optional compliance feed
	logger *zap.Logger
}

// NewRecorder builds the standard recorder. cache and writer may be nil.
func NewRecorder(repo repositories.AuditRepository, cache repositories.AlertCache, writer *kafka.Writer, logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recorder{repo: repo, cache: cache, writer: writer, logger: logger}
}

func (r *recorder) Record(ctx context.Context, alert *models.AlertEvent, amount float64) {
	if r.repo != nil {
		if err := r.repo.Record(ctx, alert, amount); err != nil {
			r.logger.Warn("audit persist failed",
				zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
	if r.cache != nil && alert.Flagged {
		if err := r.cache.PushAlert(ctx, alert); err != nil {
			r.logger.Warn("recent-alerts cache push failed",
				zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
	if r.writer != nil && alert.Flagged {
		payload, err := json.Marshal(alert)
		if err != nil {
			r.logger.Warn("alert marshal failed", zap.String("alert_id", alert.ID), zap.Error(err))
			return
		}
		err = r.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(alert.ID),
			Value: payload,
		})
		if err != nil {
			r.logger.Warn("compliance feed publish failed",
				zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
}

// NewKafkaWriter configures the compliance feed producer.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to write compliance feed messages",
					zap.Error(err), zap.Int("message_count", len(messages)))
			}
		},
	}
}

// Noop is a Recorder that does nothing. Used when persistence is
// disabled and in tests.
type Noop struct{}

func (Noop) Record(context.Context, *models.AlertEvent, float64) {}
