package service

import (
	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/config"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/jwt"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/redis"
)

// Service aggregates all business services.
type Service struct {
	Auth       AuthService
	Member     MemberService
	Event      EventService
	Attendance AttendanceService
	Notice     NoticeService
	Season     SeasonService
	Export     ExportService
	Relation   RelationService
}

// NewService wires the service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	attendance := NewAttendanceService(repo, logger)
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Member:     NewMemberService(repo, logger),
		Event:      NewEventService(repo, logger),
		Attendance: attendance,
		Notice:     NewNoticeService(repo, attendance, logger),
		Season:     NewSeasonService(cfg, repo, logger),
		Export:     NewExportService(repo, logger),
		Relation:   NewRelationService(repo, logger),
	}
}
