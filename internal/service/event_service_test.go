package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

func setupTestEventService() (EventService, *mockEventRepo) {
	eventRepo := newMockEventRepo()
	repo := &repository.Repository{
		User:         newMockUserRepo(),
		Member:       newMockMemberRepo(),
		Event:        eventRepo,
		Attendance:   newMockAttendanceRepo(),
		Notice:       newMockNoticeRepo(),
		SeasonConfig: newMockSeasonConfigRepo(),
		Relation:     newMockRelationRepo(),
	}
	svc := NewEventService(repo, zap.NewNop())
	return svc, eventRepo
}

func TestEventService_Create_Success(t *testing.T) {
	svc, _ := setupTestEventService()

	result, err := svc.Create(context.Background(), &dto.CreateEventRequest{
		Name:       "Ensayo general",
		Location:   "Casa hermandad",
		StartAt:    "2026-03-01T20:00:00Z",
		EndAt:      "2026-03-01T23:00:00Z",
		SeasonYear: 2026,
	}, "admin-001")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if result.Name != "Ensayo general" {
		t.Errorf("expected Name=Ensayo general, got %s", result.Name)
	}
	if result.SeasonYear != 2026 {
		t.Errorf("expected season 2026, got %d", result.SeasonYear)
	}
}

func TestEventService_Create_EndBeforeStart(t *testing.T) {
	svc, _ := setupTestEventService()

	_, err := svc.Create(context.Background(), &dto.CreateEventRequest{
		Name:       "Ensayo general",
		StartAt:    "2026-03-01T23:00:00Z",
		EndAt:      "2026-03-01T20:00:00Z",
		SeasonYear: 2026,
	}, "admin-001")
	if !errors.Is(err, ErrEventDateInvalid) {
		t.Errorf("expected ErrEventDateInvalid, got: %v", err)
	}
}

func TestEventService_Create_BadTimestamp(t *testing.T) {
	svc, _ := setupTestEventService()

	_, err := svc.Create(context.Background(), &dto.CreateEventRequest{
		Name:       "Ensayo general",
		StartAt:    "01/03/2026 20:00",
		EndAt:      "2026-03-01T23:00:00Z",
		SeasonYear: 2026,
	}, "admin-001")
	if !errors.Is(err, ErrEventDateInvalid) {
		t.Errorf("expected ErrEventDateInvalid, got: %v", err)
	}
}

func TestEventService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestEventService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got: %v", err)
	}
}

func TestEventService_StatusDerivedFromClock(t *testing.T) {
	svc, eventRepo := setupTestEventService()
	eventRepo.events["event-001"] = &model.Event{
		EventID:    "event-001",
		Name:       "Ensayo general",
		StartAt:    time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC),
		SeasonYear: 2026,
	}

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before start", time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC), model.EventStatusPending},
		{"during", time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC), model.EventStatusInProgress},
		{"after end", time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), model.EventStatusFinished},
	}
	for _, tc := range cases {
		svc.(*eventService).now = func() time.Time { return tc.now }
		result, err := svc.GetByID(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("%s: GetByID should succeed: %v", tc.name, err)
		}
		if result.Status != tc.want {
			t.Errorf("%s: expected status %s, got %s", tc.name, tc.want, result.Status)
		}
	}
}

func TestEventService_Update_RevalidatesWindow(t *testing.T) {
	svc, eventRepo := setupTestEventService()
	eventRepo.events["event-001"] = &model.Event{
		EventID:    "event-001",
		Name:       "Ensayo general",
		StartAt:    time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC),
		SeasonYear: 2026,
	}

	badEnd := "2026-03-01T19:00:00Z"
	_, err := svc.Update(context.Background(), "event-001", &dto.UpdateEventRequest{
		EndAt: &badEnd,
	}, "admin-001")
	if !errors.Is(err, ErrEventDateInvalid) {
		t.Errorf("expected ErrEventDateInvalid, got: %v", err)
	}
}

func TestEventService_ListBySeason_Chronological(t *testing.T) {
	svc, eventRepo := setupTestEventService()
	eventRepo.events["event-002"] = &model.Event{
		EventID: "event-002", Name: "Salida",
		StartAt:    time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 4, 3, 2, 0, 0, 0, time.UTC),
		SeasonYear: 2026,
	}
	eventRepo.events["event-001"] = &model.Event{
		EventID: "event-001", Name: "Ensayo",
		StartAt:    time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC),
		SeasonYear: 2026,
	}

	result, err := svc.ListBySeason(context.Background(), 2026)
	if err != nil {
		t.Fatalf("ListBySeason should succeed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Name != "Ensayo" || result[1].Name != "Salida" {
		t.Errorf("events must come back in start order: %s, %s", result[0].Name, result[1].Name)
	}
}
