package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates all data-access interfaces.
type Repository struct {
	User         UserRepository
	Member       MemberRepository
	Event        EventRepository
	Attendance   AttendanceRepository
	Notice       NoticeRepository
	SeasonConfig SeasonConfigRepository
	Relation     RelationRepository

	db *gorm.DB
}

// NewRepository wires the gorm-backed implementations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Member:       NewMemberRepo(db),
		Event:        NewEventRepo(db),
		Attendance:   NewAttendanceRepo(db),
		Notice:       NewNoticeRepo(db),
		SeasonConfig: NewSeasonConfigRepo(db),
		Relation:     NewRelationRepo(db),
		db:           db,
	}
}

// BeginTx opens a transaction. A repository assembled without a live
// database (mock-backed aggregates in tests) returns a nil
// transaction; callers guard commit and rollback with tx != nil.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns a Repository bound to the given transaction. A nil
// transaction returns the receiver unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
