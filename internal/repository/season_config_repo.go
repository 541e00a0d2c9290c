package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
)

// SeasonConfigRepository is the season_config singleton accessor.
type SeasonConfigRepository interface {
	Get(ctx context.Context, key string) (*model.SeasonConfig, error)
	Set(ctx context.Context, entry *model.SeasonConfig) error
}

type seasonConfigRepo struct {
	db *gorm.DB
}

// NewSeasonConfigRepo creates the gorm-backed SeasonConfigRepository.
func NewSeasonConfigRepo(db *gorm.DB) SeasonConfigRepository {
	return &seasonConfigRepo{db: db}
}

func (r *seasonConfigRepo) Get(ctx context.Context, key string) (*model.SeasonConfig, error) {
	var entry model.SeasonConfig
	err := r.db.WithContext(ctx).
		Where("config_key = ?", key).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *seasonConfigRepo) Set(ctx context.Context, entry *model.SeasonConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"config_value", "updated_at", "updated_by"}),
		}).
		Create(entry).Error
}
