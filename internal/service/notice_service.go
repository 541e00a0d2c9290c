package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ── notice business errors ──

var (
	ErrNoticeNotFound = errors.New("notice not found")
	ErrNoticeResolved = errors.New("notice already resolved")
)

// NoticeService is the absence-notice business interface.
type NoticeService interface {
	Create(ctx context.Context, memberID string, req *dto.CreateNoticeRequest) (*dto.NoticeResponse, error)
	GetByID(ctx context.Context, id string) (*dto.NoticeResponse, error)
	ListUnread(ctx context.Context) ([]dto.NoticeResponse, error)
	ListByMember(ctx context.Context, memberID string) ([]dto.NoticeResponse, error)
	Resolve(ctx context.Context, noticeID string, req *dto.ResolveNoticeRequest, callerID string) (*dto.NoticeResponse, error)
}

type noticeService struct {
	repo       *repository.Repository
	attendance AttendanceService
	logger     *zap.Logger
}

// NewNoticeService creates the NoticeService. Resolution writes the
// attendance decision through the attendance service's override path.
func NewNoticeService(repo *repository.Repository, attendance AttendanceService, logger *zap.Logger) NoticeService {
	return &noticeService{repo: repo, attendance: attendance, logger: logger}
}

// Create files an absence pre-notification from a costalero for an
// upcoming event.
func (s *noticeService) Create(ctx context.Context, memberID string, req *dto.CreateNoticeRequest) (*dto.NoticeResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	event, err := s.repo.Event.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	notice := &model.Notice{
		MemberID: member.MemberID,
		EventID:  event.EventID,
		Type:     model.NoticeTypeAbsence,
		Title:    fmt.Sprintf("Absence notice: %s", event.Name),
		Message:  req.Message,
		Reason:   req.Reason,
	}

	if err := s.repo.Notice.Create(ctx, notice); err != nil {
		s.logger.Error("create notice failed",
			zap.String("member_id", memberID),
			zap.String("event_id", req.EventID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("absence notice filed",
		zap.String("notice_id", notice.NoticeID),
		zap.String("member_id", memberID),
		zap.String("event_id", event.EventID))

	notice.Member = member
	notice.Event = event
	return toNoticeResponse(notice), nil
}

func (s *noticeService) GetByID(ctx context.Context, id string) (*dto.NoticeResponse, error) {
	notice, err := s.repo.Notice.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	return toNoticeResponse(notice), nil
}

func (s *noticeService) ListUnread(ctx context.Context) ([]dto.NoticeResponse, error) {
	notices, err := s.repo.Notice.ListUnread(ctx)
	if err != nil {
		s.logger.Error("list unread notices failed", zap.Error(err))
		return nil, err
	}
	return toNoticeResponses(notices), nil
}

func (s *noticeService) ListByMember(ctx context.Context, memberID string) ([]dto.NoticeResponse, error) {
	notices, err := s.repo.Notice.ListByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("list member notices failed", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}
	return toNoticeResponses(notices), nil
}

// Resolve records management's decision: the attendance status is
// written as a single keyed upsert, then the notice is marked read. If
// marking read fails the status write stands; re-resolving is safe
// because the upsert is idempotent for the same decision.
func (s *noticeService) Resolve(ctx context.Context, noticeID string, req *dto.ResolveNoticeRequest, callerID string) (*dto.NoticeResponse, error) {
	notice, err := s.repo.Notice.GetByID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	if notice.IsRead {
		return nil, ErrNoticeResolved
	}

	_, err = s.attendance.SetStatus(ctx, notice.EventID, &dto.SetStatusRequest{
		MemberID: notice.MemberID,
		Status:   req.Resolution,
	}, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Notice.MarkRead(ctx, noticeID); err != nil {
		s.logger.Error("mark notice read failed", zap.String("notice_id", noticeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("notice resolved",
		zap.String("notice_id", noticeID),
		zap.String("resolution", req.Resolution),
		zap.String("by", callerID))

	notice.IsRead = true
	return toNoticeResponse(notice), nil
}

func toNoticeResponse(notice *model.Notice) *dto.NoticeResponse {
	resp := &dto.NoticeResponse{
		ID:        notice.NoticeID,
		MemberID:  notice.MemberID,
		EventID:   notice.EventID,
		Type:      notice.Type,
		Title:     notice.Title,
		Message:   notice.Message,
		Reason:    notice.Reason,
		IsRead:    notice.IsRead,
		CreatedAt: notice.CreatedAt.UTC().Format(time.RFC3339),
	}
	if notice.Member != nil {
		resp.MemberName = notice.Member.FullName()
	}
	if notice.Event != nil {
		resp.EventName = notice.Event.Name
	}
	return resp
}

func toNoticeResponses(notices []model.Notice) []dto.NoticeResponse {
	result := make([]dto.NoticeResponse, 0, len(notices))
	for i := range notices {
		result = append(result, *toNoticeResponse(&notices[i]))
	}
	return result
}
