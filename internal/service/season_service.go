package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/config"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ErrSeasonYearInvalid marks an out-of-range season year.
var ErrSeasonYearInvalid = errors.New("season year out of range")

// SeasonService manages the active season-year singleton.
type SeasonService interface {
	ActiveYear(ctx context.Context) (*dto.SeasonResponse, error)
	SetActiveYear(ctx context.Context, req *dto.SetSeasonRequest, callerID string) (*dto.SeasonResponse, error)
}

type seasonService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeasonService creates the SeasonService.
func NewSeasonService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SeasonService {
	return &seasonService{cfg: cfg, repo: repo, logger: logger}
}

// ActiveYear returns the configured active season. When the row is
// missing or unparsable it falls back to the configured default instead
// of failing the request.
func (s *seasonService) ActiveYear(ctx context.Context) (*dto.SeasonResponse, error) {
	entry, err := s.repo.SeasonConfig.Get(ctx, model.ConfigKeyActiveSeasonYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.SeasonResponse{ActiveYear: s.cfg.Season.DefaultYear}, nil
		}
		s.logger.Error("read season config failed", zap.Error(err))
		return nil, err
	}

	year, err := strconv.Atoi(entry.ConfigValue)
	if err != nil {
		s.logger.Warn("season config value is not a year, using default",
			zap.String("value", entry.ConfigValue))
		year = s.cfg.Season.DefaultYear
	}

	return &dto.SeasonResponse{
		ActiveYear: year,
		UpdatedAt:  entry.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// SetActiveYear switches every season-scoped view to the given year.
func (s *seasonService) SetActiveYear(ctx context.Context, req *dto.SetSeasonRequest, callerID string) (*dto.SeasonResponse, error) {
	if req.ActiveYear < 1900 || req.ActiveYear > 2200 {
		return nil, ErrSeasonYearInvalid
	}

	entry := &model.SeasonConfig{
		ConfigKey:   model.ConfigKeyActiveSeasonYear,
		ConfigValue: strconv.Itoa(req.ActiveYear),
		UpdatedBy:   &callerID,
	}
	if err := s.repo.SeasonConfig.Set(ctx, entry); err != nil {
		s.logger.Error("set season config failed", zap.Int("year", req.ActiveYear), zap.Error(err))
		return nil, err
	}

	s.logger.Info("active season switched",
		zap.Int("year", req.ActiveYear),
		zap.String("by", callerID))

	return &dto.SeasonResponse{
		ActiveYear: req.ActiveYear,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}
