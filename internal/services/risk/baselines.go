package risk

import (
	"context"
	"sync"
	"time"

	"nexus/internal/models"
	"nexus/internal/repositories"

	"go.uber.org/zap"
)

// Defaults applied the first time a teller is seen.
const (
	DefaultAvgVariance = 500.0
	DefaultAvgTxCount  = 20.0
)

// BaselineStore owns the per-teller rolling profiles. Locking is per
// teller so unrelated tellers never serialize on each other; the outer
// mutex only guards the map itself. Scoring reads baselines; only an
// explicit Update mutates them.
type BaselineStore struct {
	mu      sync.Mutex
	entries map[uint]*baselineEntry

	repo   repositories.BaselineRepository // optional persistence
	cache  repositories.AlertCache         // optional redis cache
	logger *zap.Logger
}

type baselineEntry struct {
	mu       sync.Mutex
	loaded   bool
	baseline models.TellerBaseline
}

// NewBaselineStore builds a store. repo and cache may be nil; the store
// then runs purely in memory with defaults.
func NewBaselineStore(repo repositories.BaselineRepository, cache repositories.AlertCache, logger *zap.Logger) *BaselineStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaselineStore{
		entries: make(map[uint]*baselineEntry),
		repo:    repo,
		cache:   cache,
		logger:  logger,
	}
}

// Get returns the teller's baseline, loading it from cache or storage on
// first sight and falling back to the fixed defaults.
func (s *BaselineStore) Get(ctx context.Context, tellerID uint) models.TellerBaseline {
	entry := s.entry(tellerID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.loaded {
		entry.baseline = s.load(ctx, tellerID)
		entry.loaded = true
	}
	return entry.baseline
}

// Update replaces the teller's baseline. This is the only mutation path;
// scoring never writes back.
func (s *BaselineStore) Update(ctx context.Context, tellerID uint, avgVariance, avgTxCount float64) (models.TellerBaseline, error) {
	entry := s.entry(tellerID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	baseline := models.TellerBaseline{
		TellerID:    tellerID,
		AvgVariance: avgVariance,
		AvgTxCount:  avgTxCount,
		UpdatedAt:   time.Now().UTC(),
	}
	if s.repo != nil {
		if err := s.repo.Upsert(&baseline); err != nil {
			return models.TellerBaseline{}, err
		}
	}
	entry.baseline = baseline
	entry.loaded = true

	if s.cache != nil {
		if err := s.cache.SetBaseline(ctx, &baseline); err != nil {
			s.logger.Warn("baseline cache update failed",
				zap.Uint("teller_id", tellerID), zap.Error(err))
		}
	}
	return baseline, nil
}

func (s *BaselineStore) entry(tellerID uint) *baselineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tellerID]
	if !ok {
		entry = &baselineEntry{}
		s.entries[tellerID] = entry
	}
	return entry
}

// load resolves a baseline from cache, then storage, then defaults.
// Called with the entry lock held.
func (s *BaselineStore) load(ctx context.Context, tellerID uint) models.TellerBaseline {
	if s.cache != nil {
		if baseline, err := s.cache.GetBaseline(ctx, tellerID); err == nil {
			return *baseline
		}
	}
	if s.repo != nil {
		baseline, err := s.repo.Get(tellerID)
		if err == nil {
			if s.cache != nil {
				if cerr := s.cache.SetBaseline(ctx, baseline); cerr != nil {
					s.logger.Debug("baseline cache fill failed", zap.Error(cerr))
				}
			}
			return *baseline
		}
		if err != repositories.ErrBaselineNotFound {
			s.logger.Warn("baseline lookup failed, using defaults",
				zap.Uint("teller_id", tellerID), zap.Error(err))
		}
	}
	return models.TellerBaseline{
		TellerID:    tellerID,
		AvgVariance: DefaultAvgVariance,
		AvgTxCount:  DefaultAvgTxCount,
	}
}
