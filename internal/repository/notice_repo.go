package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
)

// NoticeRepository is the absence-notice data-access interface.
type NoticeRepository interface {
	Create(ctx context.Context, notice *model.Notice) error
	GetByID(ctx context.Context, id string) (*model.Notice, error)
	ListUnread(ctx context.Context) ([]model.Notice, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Notice, error)
	ListByMember(ctx context.Context, memberID string) ([]model.Notice, error)
	MarkRead(ctx context.Context, id string) error
}

type noticeRepo struct {
	db *gorm.DB
}

// NewNoticeRepo creates the gorm-backed NoticeRepository.
func NewNoticeRepo(db *gorm.DB) NoticeRepository {
	return &noticeRepo{db: db}
}

func (r *noticeRepo) Create(ctx context.Context, notice *model.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *noticeRepo) GetByID(ctx context.Context, id string) (*model.Notice, error) {
	var notice model.Notice
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Event").
		Where("notice_id = ?", id).
		First(&notice).Error
	if err != nil {
		return nil, err
	}
	return &notice, nil
}

func (r *noticeRepo) ListUnread(ctx context.Context) ([]model.Notice, error) {
	var notices []model.Notice
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Event").
		Where("is_read = ?", false).
		Order("created_at DESC").
		Find(&notices).Error
	return notices, err
}

func (r *noticeRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Notice, error) {
	var notices []model.Notice
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&notices).Error
	return notices, err
}

func (r *noticeRepo) ListByMember(ctx context.Context, memberID string) ([]model.Notice, error) {
	var notices []model.Notice
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&notices).Error
	return notices, err
}

func (r *noticeRepo) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notice{}).
		Where("notice_id = ?", id).
		Update("is_read", true).Error
}
