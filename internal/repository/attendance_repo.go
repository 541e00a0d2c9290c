package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
)

// AttendanceRepository is the attendance data-access interface.
//
// All writes are keyed on the UNIQUE (event_id, member_id) constraint:
// Upsert overwrites the row for the pair, GuardedInsert inserts only
// when the pair has no row yet. The legacy check-then-insert sequence
// is gone; both operations are single atomic statements.
type AttendanceRepository interface {
	Upsert(ctx context.Context, record *model.Attendance) error
	GuardedInsert(ctx context.Context, record *model.Attendance) (inserted bool, err error)
	BatchGuardedInsert(ctx context.Context, records []model.Attendance) (inserted int64, err error)
	GetByEventMember(ctx context.Context, eventID, memberID string) (*model.Attendance, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error)
	ListByMember(ctx context.Context, memberID string) ([]model.Attendance, error)
	CountByEventStatus(ctx context.Context, eventID, status string) (int64, error)
	DeleteByEventMember(ctx context.Context, eventID, memberID string) error
}

var attendanceConflictKey = []clause.Column{{Name: "event_id"}, {Name: "member_id"}}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo creates the gorm-backed AttendanceRepository.
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// Upsert overwrites the status for the pair. Used by the management
// override path and by notice resolution: one atomic statement instead
// of the legacy delete-then-insert, so no intermediate unregistered
// state is ever visible.
func (r *attendanceRepo) Upsert(ctx context.Context, record *model.Attendance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: attendanceConflictKey,
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "marked_at", "member_name",
				"height_pre_cm", "height_post_cm", "updated_at",
			}),
		}).
		Create(record).Error
}

// GuardedInsert inserts only when the pair has no record. Used by the
// scan path so a re-scan can never clobber an existing mark, even when
// two devices race.
func (r *attendanceRepo) GuardedInsert(ctx context.Context, record *model.Attendance) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   attendanceConflictKey,
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// BatchGuardedInsert inserts the subset of records whose pairs are
// still unregistered. Closing the ledger is idempotent through this:
// a re-run, or a concurrent run from another device, inserts nothing
// for pairs already marked.
func (r *attendanceRepo) BatchGuardedInsert(ctx context.Context, records []model.Attendance) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   attendanceConflictKey,
			DoNothing: true,
		}).
		Create(&records)
	return result.RowsAffected, result.Error
}

func (r *attendanceRepo) GetByEventMember(ctx context.Context, eventID, memberID string) (*model.Attendance, error) {
	var record model.Attendance
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Order("marked_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error) {
	var records []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("event_id = ?", eventID).
		Order("marked_at ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByMember(ctx context.Context, memberID string) ([]model.Attendance, error) {
	var records []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("member_id = ?", memberID).
		Order("marked_at DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) CountByEventStatus(ctx context.Context, eventID, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&total).Error
	return total, err
}

// DeleteByEventMember hard-deletes the record, returning the pair to
// the implicit unregistered state.
func (r *attendanceRepo) DeleteByEventMember(ctx context.Context, eventID, memberID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Delete(&model.Attendance{}).Error
}
