package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// AttendanceHandler handles attendance endpoints.
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler creates the AttendanceHandler.
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Scan registers a QR check-in.
// POST /api/v1/events/:id/attendance/scan
func (h *AttendanceHandler) Scan(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.attendanceSvc.Scan(c.Request.Context(), eventID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	if result.AlreadyRegistered {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

// SetStatus applies a management override.
// PUT /api/v1/events/:id/attendance
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.SetStatus(c.Request.Context(), eventID, &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// CloseEvent closes the ledger, marking unregistered members absent.
// POST /api/v1/events/:id/attendance/close
func (h *AttendanceHandler) CloseEvent(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	result, err := h.attendanceSvc.CloseEvent(c.Request.Context(), eventID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteRecord removes a record, returning the pair to unregistered.
// DELETE /api/v1/events/:id/attendance/:memberId
func (h *AttendanceHandler) DeleteRecord(c *gin.Context) {
	eventID := c.Param("id")
	memberID := c.Param("memberId")
	if eventID == "" || memberID == "" {
		response.BadRequest(c, 10001, "event id and member id are required")
		return
	}

	if err := h.attendanceSvc.Delete(c.Request.Context(), eventID, memberID); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, nil)
}

// EventRoll returns the event roll grouped by trabajadera.
// GET /api/v1/events/:id/attendance
func (h *AttendanceHandler) EventRoll(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	roll, err := h.attendanceSvc.EventRoll(c.Request.Context(), eventID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, roll)
}

// MemberHistory lists a member's attendance across events.
// GET /api/v1/members/:id/attendance
func (h *AttendanceHandler) MemberHistory(c *gin.Context) {
	memberID := c.Param("id")
	if memberID == "" {
		response.BadRequest(c, 10001, "member id is required")
		return
	}

	records, err := h.attendanceSvc.ListByMember(c.Request.Context(), memberID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// handleAttendanceError maps attendance business errors to responses.
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 13001, "event not found")
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 12001, "member not found")
	case errors.Is(err, service.ErrAttendanceNotFound):
		response.NotFound(c, 14001, "attendance record not found")
	case errors.Is(err, service.ErrBadStatus):
		response.BadRequest(c, 14002, "invalid attendance status")
	case errors.Is(err, service.ErrMemberWrongSeason):
		response.BadRequest(c, 14003, "member does not belong to the event season")
	default:
		response.InternalError(c)
	}
}
