package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	pkgerrors "github.com/alarmdryros/cuadrilla-app-sub000/pkg/errors"
)

// EventRepository is the event data-access interface.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListBySeason(ctx context.Context, seasonYear int) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo creates the gorm-backed EventRepository.
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) ListBySeason(ctx context.Context, seasonYear int) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("season_year = ?", seasonYear).
		Order("start_at ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	oldVersion := event.Version
	result := r.db.WithContext(ctx).
		Model(event).
		Where("event_id = ? AND version = ?", event.EventID, oldVersion).
		Updates(map[string]interface{}{
			"name":       event.Name,
			"location":   event.Location,
			"start_at":   event.StartAt,
			"end_at":     event.EndAt,
			"updated_by": event.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version = oldVersion + 1
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", id).
		Update("deleted_by", deletedBy).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("event_id = ?", id).
		Delete(&model.Event{}).Error
}
