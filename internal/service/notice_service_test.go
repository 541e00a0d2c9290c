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

type noticeFixture struct {
	svc        NoticeService
	attendance AttendanceService
	noticeRepo *mockNoticeRepo
	attRepo    *mockAttendanceRepo
}

func setupTestNoticeService() *noticeFixture {
	memberRepo := newMockMemberRepo()
	eventRepo := newMockEventRepo()
	noticeRepo := newMockNoticeRepo()
	attRepo := newMockAttendanceRepo()
	repo := &repository.Repository{
		User:         newMockUserRepo(),
		Member:       memberRepo,
		Event:        eventRepo,
		Attendance:   attRepo,
		Notice:       noticeRepo,
		SeasonConfig: newMockSeasonConfigRepo(),
		Relation:     newMockRelationRepo(),
	}
	logger := zap.NewNop()
	attendance := NewAttendanceService(repo, logger)
	svc := NewNoticeService(repo, attendance, logger)

	memberRepo.members["member-001"] = &model.Member{
		MemberID: "member-001", FirstName: "Luis", Surname: "García",
		Trabajadera: 3, SeasonYear: 2026,
	}
	eventRepo.events["event-001"] = &model.Event{
		EventID: "event-001", Name: "Salida procesional",
		StartAt:    time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 4, 3, 2, 0, 0, 0, time.UTC),
		SeasonYear: 2026,
	}
	return &noticeFixture{svc: svc, attendance: attendance, noticeRepo: noticeRepo, attRepo: attRepo}
}

func TestNoticeService_Create_Success(t *testing.T) {
	f := setupTestNoticeService()

	resp, err := f.svc.Create(context.Background(), "member-001", &dto.CreateNoticeRequest{
		EventID: "event-001",
		Reason:  "trabajo",
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if resp.IsRead {
		t.Error("new notice must start unread")
	}
	if resp.Type != model.NoticeTypeAbsence {
		t.Errorf("expected type absence, got %s", resp.Type)
	}
	if resp.Title != "Absence notice: Salida procesional" {
		t.Errorf("unexpected title: %s", resp.Title)
	}
}

func TestNoticeService_Create_UnknownEvent(t *testing.T) {
	f := setupTestNoticeService()

	_, err := f.svc.Create(context.Background(), "member-001", &dto.CreateNoticeRequest{
		EventID: "nonexistent",
		Reason:  "trabajo",
	})
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got: %v", err)
	}
}

func TestNoticeService_Resolve_Justified(t *testing.T) {
	f := setupTestNoticeService()

	created, err := f.svc.Create(context.Background(), "member-001", &dto.CreateNoticeRequest{
		EventID: "event-001",
		Reason:  "trabajo",
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	resolved, err := f.svc.Resolve(context.Background(), created.ID, &dto.ResolveNoticeRequest{
		Resolution: model.AttendanceJustified,
	}, "admin-001")
	if err != nil {
		t.Fatalf("Resolve should succeed: %v", err)
	}
	if !resolved.IsRead {
		t.Error("resolved notice must be marked read")
	}

	record, err := f.attRepo.GetByEventMember(context.Background(), "event-001", "member-001")
	if err != nil {
		t.Fatalf("resolution should write an attendance record: %v", err)
	}
	if record.Status != model.AttendanceJustified {
		t.Errorf("expected justified, got %s", record.Status)
	}
}

func TestNoticeService_Resolve_OverridesExistingMark(t *testing.T) {
	f := setupTestNoticeService()

	// the pair was already marked absent by a ledger closure
	_, err := f.attendance.SetStatus(context.Background(), "event-001", &dto.SetStatusRequest{
		MemberID: "member-001",
		Status:   model.AttendanceAbsent,
	}, "admin-001")
	if err != nil {
		t.Fatalf("SetStatus should succeed: %v", err)
	}

	created, err := f.svc.Create(context.Background(), "member-001", &dto.CreateNoticeRequest{
		EventID: "event-001",
		Reason:  "lesión",
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := f.svc.Resolve(context.Background(), created.ID, &dto.ResolveNoticeRequest{
		Resolution: model.AttendanceJustified,
	}, "admin-001"); err != nil {
		t.Fatalf("Resolve should succeed: %v", err)
	}

	record, _ := f.attRepo.GetByEventMember(context.Background(), "event-001", "member-001")
	if record.Status != model.AttendanceJustified {
		t.Errorf("resolution must override the absent mark, got %s", record.Status)
	}
}

func TestNoticeService_Resolve_AlreadyResolved(t *testing.T) {
	f := setupTestNoticeService()

	created, err := f.svc.Create(context.Background(), "member-001", &dto.CreateNoticeRequest{
		EventID: "event-001",
		Reason:  "trabajo",
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := f.svc.Resolve(context.Background(), created.ID, &dto.ResolveNoticeRequest{
		Resolution: model.AttendanceJustified,
	}, "admin-001"); err != nil {
		t.Fatalf("first Resolve should succeed: %v", err)
	}

	_, err = f.svc.Resolve(context.Background(), created.ID, &dto.ResolveNoticeRequest{
		Resolution: model.AttendanceAbsent,
	}, "admin-001")
	if !errors.Is(err, ErrNoticeResolved) {
		t.Errorf("expected ErrNoticeResolved, got: %v", err)
	}
}

func TestNoticeService_Resolve_NotFound(t *testing.T) {
	f := setupTestNoticeService()

	_, err := f.svc.Resolve(context.Background(), "nonexistent", &dto.ResolveNoticeRequest{
		Resolution: model.AttendanceJustified,
	}, "admin-001")
	if !errors.Is(err, ErrNoticeNotFound) {
		t.Errorf("expected ErrNoticeNotFound, got: %v", err)
	}
}

func TestNoticeService_ListUnread(t *testing.T) {
	f := setupTestNoticeService()

	created, err := f.svc.Create(context.Background(), "member-001", &dto.CreateNoticeRequest{
		EventID: "event-001",
		Reason:  "trabajo",
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	unread, err := f.svc.ListUnread(context.Background())
	if err != nil {
		t.Fatalf("ListUnread should succeed: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread notice, got %d", len(unread))
	}

	if _, err := f.svc.Resolve(context.Background(), created.ID, &dto.ResolveNoticeRequest{
		Resolution: model.AttendanceAbsent,
	}, "admin-001"); err != nil {
		t.Fatalf("Resolve should succeed: %v", err)
	}
	unread, _ = f.svc.ListUnread(context.Background())
	if len(unread) != 0 {
		t.Errorf("resolved notice must leave the unread list, got %d", len(unread))
	}
}
