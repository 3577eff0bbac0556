package risk

import (
	"context"
	"errors"
	"sync"
	"testing"

	"nexus/internal/models"
	"nexus/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBaselineRepo struct {
	mu        sync.Mutex
	baselines map[uint]models.TellerBaseline
	getErr    error
	upsertErr error
	upserts   int
}

func newFakeBaselineRepo() *fakeBaselineRepo {
	return &fakeBaselineRepo{baselines: make(map[uint]models.TellerBaseline)}
}

func (r *fakeBaselineRepo) Get(tellerID uint) (*models.TellerBaseline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	baseline, ok := r.baselines[tellerID]
	if !ok {
		return nil, repositories.ErrBaselineNotFound
	}
	return &baseline, nil
}

func (r *fakeBaselineRepo) Upsert(baseline *models.TellerBaseline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.baselines[baseline.TellerID] = *baseline
	r.upserts++
	return nil
}

type fakeAlertCache struct {
	mu        sync.Mutex
	baselines map[uint]models.TellerBaseline
	alerts    []models.AlertEvent
}

func newFakeAlertCache() *fakeAlertCache {
	return &fakeAlertCache{baselines: make(map[uint]models.TellerBaseline)}
}

func (c *fakeAlertCache) PushAlert(ctx context.Context, alert *models.AlertEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, *alert)
	return nil
}

func (c *fakeAlertCache) RecentAlerts(ctx context.Context, limit int) ([]models.AlertEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.AlertEvent, len(c.alerts))
	copy(out, c.alerts)
	return out, nil
}

func (c *fakeAlertCache) GetBaseline(ctx context.Context, tellerID uint) (*models.TellerBaseline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	baseline, ok := c.baselines[tellerID]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return &baseline, nil
}

func (c *fakeAlertCache) SetBaseline(ctx context.Context, baseline *models.TellerBaseline) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baselines[baseline.TellerID] = *baseline
	return nil
}

func (c *fakeAlertCache) InvalidateBaseline(ctx context.Context, tellerID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.baselines, tellerID)
	return nil
}

func TestBaselineStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown teller gets defaults", func(t *testing.T) {
		store := NewBaselineStore(newFakeBaselineRepo(), newFakeAlertCache(), nil)
		baseline := store.Get(ctx, 42)
		assert.Equal(t, uint(42), baseline.TellerID)
		assert.Equal(t, DefaultAvgVariance, baseline.AvgVariance)
		assert.Equal(t, DefaultAvgTxCount, baseline.AvgTxCount)
	})

	t.Run("nil repo and cache run in memory", func(t *testing.T) {
		store := NewBaselineStore(nil, nil, nil)
		baseline := store.Get(ctx, 1)
		assert.Equal(t, DefaultAvgVariance, baseline.AvgVariance)
	})

	t.Run("loads persisted baseline", func(t *testing.T) {
		repo := newFakeBaselineRepo()
		repo.baselines[9] = models.TellerBaseline{TellerID: 9, AvgVariance: 800, AvgTxCount: 35}
		cache := newFakeAlertCache()

		store := NewBaselineStore(repo, cache, nil)
		baseline := store.Get(ctx, 9)
		assert.Equal(t, 800.0, baseline.AvgVariance)

		// backfilled into the cache on the way through
		cached, err := cache.GetBaseline(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, 800.0, cached.AvgVariance)
	})

	t.Run("cache hit skips storage", func(t *testing.T) {
		repo := newFakeBaselineRepo()
		repo.getErr = errors.New("db down")
		cache := newFakeAlertCache()
		cache.baselines[5] = models.TellerBaseline{TellerID: 5, AvgVariance: 600, AvgTxCount: 25}

		store := NewBaselineStore(repo, cache, nil)
		baseline := store.Get(ctx, 5)
		assert.Equal(t, 600.0, baseline.AvgVariance)
	})

	t.Run("storage error falls back to defaults", func(t *testing.T) {
		repo := newFakeBaselineRepo()
		repo.getErr = errors.New("db down")

		store := NewBaselineStore(repo, newFakeAlertCache(), nil)
		baseline := store.Get(ctx, 6)
		assert.Equal(t, DefaultAvgVariance, baseline.AvgVariance)
	})
}

func TestBaselineStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("update persists and is visible to readers", func(t *testing.T) {
		repo := newFakeBaselineRepo()
		cache := newFakeAlertCache()
		store := NewBaselineStore(repo, cache, nil)

		baseline, err := store.Update(ctx, 3, 1200, 40)
		require.NoError(t, err)
		assert.Equal(t, 1200.0, baseline.AvgVariance)
		assert.False(t, baseline.UpdatedAt.IsZero())

		got := store.Get(ctx, 3)
		assert.Equal(t, 1200.0, got.AvgVariance)
		assert.Equal(t, 40.0, got.AvgTxCount)
		assert.Equal(t, 1, repo.upserts)
	})

	t.Run("persistence failure leaves old baseline", func(t *testing.T) {
		repo := newFakeBaselineRepo()
		store := NewBaselineStore(repo, nil, nil)

		_, err := store.Update(ctx, 4, 900, 30)
		require.NoError(t, err)

		repo.upsertErr = errors.New("db down")
		_, err = store.Update(ctx, 4, 9999, 99)
		require.Error(t, err)

		got := store.Get(ctx, 4)
		assert.Equal(t, 900.0, got.AvgVariance)
	})

	t.Run("concurrent updates on distinct tellers", func(t *testing.T) {
		store := NewBaselineStore(newFakeBaselineRepo(), nil, nil)
		var wg sync.WaitGroup
		for i := 1; i <= 20; i++ {
			wg.Add(1)
			go func(id uint) {
				defer wg.Done()
				_, err := store.Update(ctx, id, float64(id)*100, float64(id))
				assert.NoError(t, err)
			}(uint(i))
		}
		wg.Wait()

		for i := 1; i <= 20; i++ {
			got := store.Get(ctx, uint(i))
			assert.Equal(t, float64(i)*100, got.AvgVariance)
		}
	})
}
