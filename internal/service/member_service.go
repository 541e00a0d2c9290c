package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ── roster business errors ──

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrSeasonEmpty      = errors.New("source season has no members")
	ErrSeasonSameYear   = errors.New("target season must differ from source season")
	ErrSeasonNotEmpty   = errors.New("target season already has members")
)

// MemberService is the roster business interface.
type MemberService interface {
	Create(ctx context.Context, req *dto.CreateMemberRequest, callerID string) (*dto.MemberResponse, error)
	GetByID(ctx context.Context, id string) (*dto.MemberResponse, error)
	ListBySeason(ctx context.Context, seasonYear int) ([]dto.MemberResponse, error)
	ListGrouped(ctx context.Context, seasonYear int) ([]dto.TrabajaderaGroup, error)
	Update(ctx context.Context, id string, req *dto.UpdateMemberRequest, callerID string) (*dto.MemberResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	CloneSeason(ctx context.Context, req *dto.CloneSeasonRequest, callerID string) (int, error)
}

type memberService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMemberService creates the MemberService.
func NewMemberService(repo *repository.Repository, logger *zap.Logger) MemberService {
	return &memberService{repo: repo, logger: logger}
}

func (s *memberService) Create(ctx context.Context, req *dto.CreateMemberRequest, callerID string) (*dto.MemberResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleCostalero
	}

	member := &model.Member{
		FirstName:    req.FirstName,
		Surname:      req.Surname,
		Trabajadera:  req.Trabajadera,
		Role:         role,
		SeasonYear:   req.SeasonYear,
		Phone:        req.Phone,
		Email:        req.Email,
		HeightCm:     req.HeightCm,
		ShoeHeightCm: req.ShoeHeightCm,
	}
	member.CreatedBy = &callerID
	member.UpdatedBy = &callerID

	if err := s.repo.Member.Create(ctx, member); err != nil {
		s.logger.Error("create member failed", zap.Error(err))
		return nil, err
	}

	return toMemberResponse(member), nil
}

func (s *memberService) GetByID(ctx context.Context, id string) (*dto.MemberResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("look up member failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toMemberResponse(member), nil
}

func (s *memberService) ListBySeason(ctx context.Context, seasonYear int) ([]dto.MemberResponse, error) {
	members, err := s.repo.Member.ListBySeason(ctx, seasonYear)
	if err != nil {
		s.logger.Error("list members failed", zap.Int("season_year", seasonYear), zap.Error(err))
		return nil, err
	}

	result := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		result = append(result, *toMemberResponse(&members[i]))
	}
	return result, nil
}

// ListGrouped returns the roster bucketed by trabajadera, ascending,
// with trabajadera 0 (unassigned) last; surname order inside a bucket.
func (s *memberService) ListGrouped(ctx context.Context, seasonYear int) ([]dto.TrabajaderaGroup, error) {
	members, err := s.repo.Member.ListBySeason(ctx, seasonYear)
	if err != nil {
		s.logger.Error("list members failed", zap.Int("season_year", seasonYear), zap.Error(err))
		return nil, err
	}
	return groupMembers(members), nil
}

func (s *memberService) Update(ctx context.Context, id string, req *dto.UpdateMemberRequest, callerID string) (*dto.MemberResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("look up member failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.Surname != nil {
		member.Surname = *req.Surname
	}
	if req.Trabajadera != nil {
		member.Trabajadera = *req.Trabajadera
	}
	if req.Role != nil {
		member.Role = *req.Role
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.HeightCm != nil {
		member.HeightCm = req.HeightCm
	}
	if req.ShoeHeightCm != nil {
		member.ShoeHeightCm = req.ShoeHeightCm
	}
	member.UpdatedBy = &callerID

	if err := s.repo.Member.Update(ctx, member); err != nil {
		s.logger.Error("update member failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toMemberResponse(member), nil
}

func (s *memberService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Member.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		s.logger.Error("look up member failed", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Member.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete member failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// CloneSeason copies every member of the source season into the target
// season as fresh rows. Member rows are scoped to one season-year;
// carrying the cuadrilla forward is always an explicit copy.
func (s *memberService) CloneSeason(ctx context.Context, req *dto.CloneSeasonRequest, callerID string) (int, error) {
	if req.FromYear == req.ToYear {
		return 0, ErrSeasonSameYear
	}

	// Transaction keeps the emptiness check and the batch insert
	// atomic: two concurrent clones into the same target season cannot
	// both pass the check.
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	existing, err := txRepo.Member.CountBySeason(ctx, req.ToYear)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("count target season failed", zap.Error(err))
		return 0, err
	}
	if existing > 0 {
		if tx != nil {
			tx.Rollback()
		}
		return 0, ErrSeasonNotEmpty
	}

	members, err := txRepo.Member.ListBySeason(ctx, req.FromYear)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("list source season failed", zap.Error(err))
		return 0, err
	}
	if len(members) == 0 {
		if tx != nil {
			tx.Rollback()
		}
		return 0, ErrSeasonEmpty
	}

	clones := make([]model.Member, 0, len(members))
	for i := range members {
		m := members[i]
		clone := model.Member{
			FirstName:    m.FirstName,
			Surname:      m.Surname,
			Trabajadera:  m.Trabajadera,
			Role:         m.Role,
			SeasonYear:   req.ToYear,
			Phone:        m.Phone,
			Email:        m.Email,
			HeightCm:     m.HeightCm,
			ShoeHeightCm: m.ShoeHeightCm,
		}
		clone.CreatedBy = &callerID
		clone.UpdatedBy = &callerID
		clones = append(clones, clone)
	}

	if err := txRepo.Member.BatchCreate(ctx, clones); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("clone season failed", zap.Error(err))
		return 0, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("commit transaction failed", zap.Error(err))
			return 0, err
		}
	}

	s.logger.Info("season cloned",
		zap.Int("from_year", req.FromYear),
		zap.Int("to_year", req.ToYear),
		zap.Int("members", len(clones)),
	)
	return len(clones), nil
}

// ── helpers ──

func toMemberResponse(member *model.Member) *dto.MemberResponse {
	return &dto.MemberResponse{
		ID:           member.MemberID,
		FirstName:    member.FirstName,
		Surname:      member.Surname,
		FullName:     member.FullName(),
		Trabajadera:  member.Trabajadera,
		Role:         member.Role,
		SeasonYear:   member.SeasonYear,
		Phone:        member.Phone,
		Email:        member.Email,
		HeightCm:     member.HeightCm,
		ShoeHeightCm: member.ShoeHeightCm,
		CreatedAt:    member.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    member.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// groupMembers buckets by trabajadera ascending with the unassigned
// bucket (0) last, surname ascending inside each bucket.
func groupMembers(members []model.Member) []dto.TrabajaderaGroup {
	buckets := make(map[int][]model.Member)
	for i := range members {
		buckets[members[i].Trabajadera] = append(buckets[members[i].Trabajadera], members[i])
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return trabajaderaLess(keys[i], keys[j])
	})

	groups := make([]dto.TrabajaderaGroup, 0, len(keys))
	for _, k := range keys {
		bucket := buckets[k]
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].Surname != bucket[j].Surname {
				return bucket[i].Surname < bucket[j].Surname
			}
			return bucket[i].FirstName < bucket[j].FirstName
		})

		group := dto.TrabajaderaGroup{Trabajadera: k}
		for i := range bucket {
			group.Members = append(group.Members, *toMemberResponse(&bucket[i]))
		}
		groups = append(groups, group)
	}
	return groups
}

// trabajaderaLess orders pole groups ascending with 0 (unassigned) last.
func trabajaderaLess(a, b int) bool {
	if a == model.TrabajaderaUnassigned {
		return false
	}
	if b == model.TrabajaderaUnassigned {
		return true
	}
	return a < b
}
