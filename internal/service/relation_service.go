package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// RelationService fronts the generic relations gateway. It is a thin
// layer over the repository: whitelist validation lives there, this
// level adds request logging.
type RelationService interface {
	Select(ctx context.Context, relation string, q *dto.RelationQuery) (*dto.RelationRows, error)
	Insert(ctx context.Context, relation string, w *dto.RelationWrite) (*dto.RelationAffected, error)
	Upsert(ctx context.Context, relation string, w *dto.RelationWrite) (*dto.RelationAffected, error)
	Delete(ctx context.Context, relation string, q *dto.RelationQuery) (*dto.RelationAffected, error)
	Count(ctx context.Context, relation string, q *dto.RelationQuery) (*dto.RelationCount, error)
}

type relationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRelationService creates the RelationService.
func NewRelationService(repo *repository.Repository, logger *zap.Logger) RelationService {
	return &relationService{repo: repo, logger: logger}
}

func (s *relationService) Select(ctx context.Context, relation string, q *dto.RelationQuery) (*dto.RelationRows, error) {
	rows, err := s.repo.Relation.Select(ctx, relation, q.Filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	return &dto.RelationRows{Rows: rows}, nil
}

func (s *relationService) Insert(ctx context.Context, relation string, w *dto.RelationWrite) (*dto.RelationAffected, error) {
	affected, err := s.repo.Relation.Insert(ctx, relation, w.Rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("relation insert",
		zap.String("relation", relation),
		zap.Int64("affected", affected))
	return &dto.RelationAffected{Affected: affected}, nil
}

func (s *relationService) Upsert(ctx context.Context, relation string, w *dto.RelationWrite) (*dto.RelationAffected, error) {
	affected, err := s.repo.Relation.Upsert(ctx, relation, w.Rows, w.ConflictKey)
	if err != nil {
		return nil, err
	}
	s.logger.Info("relation upsert",
		zap.String("relation", relation),
		zap.Strings("conflict_key", w.ConflictKey),
		zap.Int64("affected", affected))
	return &dto.RelationAffected{Affected: affected}, nil
}

func (s *relationService) Delete(ctx context.Context, relation string, q *dto.RelationQuery) (*dto.RelationAffected, error) {
	affected, err := s.repo.Relation.Delete(ctx, relation, q.Filter)
	if err != nil {
		return nil, err
	}
	s.logger.Info("relation delete",
		zap.String("relation", relation),
		zap.Int64("affected", affected))
	return &dto.RelationAffected{Affected: affected}, nil
}

func (s *relationService) Count(ctx context.Context, relation string, q *dto.RelationQuery) (*dto.RelationCount, error) {
	total, err := s.repo.Relation.Count(ctx, relation, q.Filter)
	if err != nil {
		return nil, err
	}
	return &dto.RelationCount{Count: total}, nil
}
