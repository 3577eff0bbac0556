package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nexus/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	recentAlertsKey = "alerts:recent"
	recentAlertsCap = 100
	baselineKeyFmt  = "baseline:%d"
	baselineTTL     = 12 * time.Hour
)

// AlertCache is the Redis-backed hot path for the recent-alerts feed and
// teller baselines.
type AlertCache interface {
	PushAlert(ctx context.Context, alert *models.AlertEvent) error
	RecentAlerts(ctx context.Context, limit int) ([]models.AlertEvent, error)
	GetBaseline(ctx context.Context, tellerID uint) (*models.TellerBaseline, error)
	SetBaseline(ctx context.Context, baseline *models.TellerBaseline) error
	InvalidateBaseline(ctx context.Context, tellerID uint) error
}

type redisAlertCache struct {
	client *redis.Client
}

func NewAlertCache(client *redis.Client) AlertCache {
	return &redisAlertCache{client: client}
}

func (c *redisAlertCache) PushAlert(ctx context.Context, alert *models.AlertEvent) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, recentAlertsKey, data)
	pipe.LTrim(ctx, recentAlertsKey, 0, recentAlertsCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *redisAlertCache) RecentAlerts(ctx context.Context, limit int) ([]models.AlertEvent, error) {
	if limit <= 0 || limit > recentAlertsCap {
		limit = recentAlertsCap
	}
	vals, err := c.client.LRange(ctx, recentAlertsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	alerts := make([]models.AlertEvent, 0, len(vals))
	for _, v := range vals {
		var alert models.AlertEvent
		if err := json.Unmarshal([]byte(v), &alert); err != nil {
			continue // skip corrupt entries
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (c *redisAlertCache) GetBaseline(ctx context.Context, tellerID uint) (*models.TellerBaseline, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf(baselineKeyFmt, tellerID)).Result()
	if err != nil {
		return nil, err
	}
	var baseline models.TellerBaseline
	if err := json.Unmarshal([]byte(val), &baseline); err != nil {
		return nil, err
	}
	return &baseline, nil
}

func (c *redisAlertCache) SetBaseline(ctx context.Context, baseline *models.TellerBaseline) error {
	data, err := json.Marshal(baseline)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fmt.Sprintf(baselineKeyFmt, baseline.TellerID), data, baselineTTL).Err()
}

func (c *redisAlertCache) InvalidateBaseline(ctx context.Context, tellerID uint) error {
	return c.client.Del(ctx, fmt.Sprintf(baselineKeyFmt, tellerID)).Err()
}
