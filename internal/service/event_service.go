package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ── event business errors ──

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventDateInvalid = errors.New("event end must be after start")
)

// EventService is the event business interface.
type EventService interface {
	Create(ctx context.Context, req *dto.CreateEventRequest, callerID string) (*dto.EventResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EventResponse, error)
	ListBySeason(ctx context.Context, seasonYear int) ([]dto.EventResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEventRequest, callerID string) (*dto.EventResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type eventService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewEventService creates the EventService.
func NewEventService(repo *repository.Repository, logger *zap.Logger) EventService {
	return &eventService{repo: repo, logger: logger, now: time.Now}
}

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest, callerID string) (*dto.EventResponse, error) {
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, ErrEventDateInvalid
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		return nil, ErrEventDateInvalid
	}
	if !endAt.After(startAt) {
		return nil, ErrEventDateInvalid
	}

	event := &model.Event{
		Name:       req.Name,
		Location:   req.Location,
		StartAt:    startAt.UTC(),
		EndAt:      endAt.UTC(),
		SeasonYear: req.SeasonYear,
	}
	event.CreatedBy = &callerID
	event.UpdatedBy = &callerID

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("create event failed", zap.Error(err))
		return nil, err
	}

	return s.toEventResponse(event), nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("look up event failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toEventResponse(event), nil
}

func (s *eventService) ListBySeason(ctx context.Context, seasonYear int) ([]dto.EventResponse, error) {
	events, err := s.repo.Event.ListBySeason(ctx, seasonYear)
	if err != nil {
		s.logger.Error("list events failed", zap.Int("season_year", seasonYear), zap.Error(err))
		return nil, err
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *s.toEventResponse(&events[i]))
	}
	return result, nil
}

func (s *eventService) Update(ctx context.Context, id string, req *dto.UpdateEventRequest, callerID string) (*dto.EventResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("look up event failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartAt != nil {
		startAt, err := time.Parse(time.RFC3339, *req.StartAt)
		if err != nil {
			return nil, ErrEventDateInvalid
		}
		event.StartAt = startAt.UTC()
	}
	if req.EndAt != nil {
		endAt, err := time.Parse(time.RFC3339, *req.EndAt)
		if err != nil {
			return nil, ErrEventDateInvalid
		}
		event.EndAt = endAt.UTC()
	}
	if !event.EndAt.After(event.StartAt) {
		return nil, ErrEventDateInvalid
	}
	event.UpdatedBy = &callerID

	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Error("update event failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toEventResponse(event), nil
}

func (s *eventService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Event.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		s.logger.Error("look up event failed", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Event.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete event failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *eventService) toEventResponse(event *model.Event) *dto.EventResponse {
	return &dto.EventResponse{
		ID:         event.EventID,
		Name:       event.Name,
		Location:   event.Location,
		StartAt:    event.StartAt.UTC().Format(time.RFC3339),
		EndAt:      event.EndAt.UTC().Format(time.RFC3339),
		SeasonYear: event.SeasonYear,
		Status:     event.StatusAt(s.now()),
		CreatedAt:  event.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  event.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
