package handler

import "github.com/alarmdryros/cuadrilla-app-sub000/internal/service"

// Handler aggregates all HTTP handlers.
type Handler struct {
	Auth       *AuthHandler
	Member     *MemberHandler
	Event      *EventHandler
	Attendance *AttendanceHandler
	Notice     *NoticeHandler
	Season     *SeasonHandler
	Export     *ExportHandler
	Relation   *RelationHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Member:     NewMemberHandler(svc.Member),
		Event:      NewEventHandler(svc.Event),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Notice:     NewNoticeHandler(svc.Notice),
		Season:     NewSeasonHandler(svc.Season),
		Export:     NewExportHandler(svc.Export),
		Relation:   NewRelationHandler(svc.Relation),
	}
}
