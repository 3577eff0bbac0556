package repositories

import (
	"errors"

	"nexus/internal/models"

	"gorm.io/gorm"
)

var ErrBaselineNotFound = errors.New("teller baseline not found")

// BaselineRepository persists per-teller rolling profiles.
type BaselineRepository interface {
	Get(tellerID uint) (*models.TellerBaseline, error)
	Upsert(baseline *models.TellerBaseline) error
}

type baselineRepository struct {
	db *gorm.DB
}

func NewBaselineRepository(db *gorm.DB) BaselineRepository {
	return &baselineRepository{db: db}
}

func (r *baselineRepository) Get(tellerID uint) (*models.TellerBaseline, error) {
	var baseline models.TellerBaseline
	err := r.db.First(&baseline, "teller_id = ?", tellerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBaselineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &baseline, nil
}

func (r *baselineRepository) Upsert(baseline *models.TellerBaseline) error {
	return r.db.Save(baseline).Error
}
