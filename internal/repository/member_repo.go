package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	pkgerrors "github.com/alarmdryros/cuadrilla-app-sub000/pkg/errors"
)

// MemberRepository is the roster data-access interface.
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	BatchCreate(ctx context.Context, members []model.Member) error
	GetByID(ctx context.Context, id string) (*model.Member, error)
	ListBySeason(ctx context.Context, seasonYear int) ([]model.Member, error)
	CountBySeason(ctx context.Context, seasonYear int) (int64, error)
	Update(ctx context.Context, member *model.Member) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo creates the gorm-backed MemberRepository.
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepo) BatchCreate(ctx context.Context, members []model.Member) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&members).Error
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("member_id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListBySeason(ctx context.Context, seasonYear int) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("season_year = ?", seasonYear).
		Order("surname ASC, first_name ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepo) CountBySeason(ctx context.Context, seasonYear int) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("season_year = ?", seasonYear).
		Count(&total).Error
	return total, err
}

func (r *memberRepo) Update(ctx context.Context, member *model.Member) error {
	oldVersion := member.Version
	result := r.db.WithContext(ctx).
		Model(member).
		Where("member_id = ? AND version = ?", member.MemberID, oldVersion).
		Updates(map[string]interface{}{
			"first_name":     member.FirstName,
			"surname":        member.Surname,
			"trabajadera":    member.Trabajadera,
			"role":           member.Role,
			"phone":          member.Phone,
			"email":          member.Email,
			"height_cm":      member.HeightCm,
			"shoe_height_cm": member.ShoeHeightCm,
			"updated_by":     member.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	member.Version = oldVersion + 1
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("member_id = ?", id).
		Update("deleted_by", deletedBy).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("member_id = ?", id).
		Delete(&model.Member{}).Error
}
