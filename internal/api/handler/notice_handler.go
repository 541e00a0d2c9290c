package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// NoticeHandler handles absence-notice endpoints.
type NoticeHandler struct {
	noticeSvc service.NoticeService
}

// NewNoticeHandler creates the NoticeHandler.
func NewNoticeHandler(noticeSvc service.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeSvc: noticeSvc}
}

// CreateNotice files an absence pre-notification. The notice is filed
// for the costalero linked to the caller's account.
// POST /api/v1/notices
func (h *NoticeHandler) CreateNotice(c *gin.Context) {
	var req dto.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	memberID := GetMemberID(c)
	if memberID == "" {
		response.Forbidden(c, 15001, "account is not linked to a roster member")
		return
	}

	notice, err := h.noticeSvc.Create(c.Request.Context(), memberID, &req)
	if err != nil {
		h.handleNoticeError(c, err)
		return
	}

	response.Created(c, notice)
}

// ListUnread lists unresolved notices for management.
// GET /api/v1/notices/unread
func (h *NoticeHandler) ListUnread(c *gin.Context) {
	notices, err := h.noticeSvc.ListUnread(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": notices})
}

// ListMine lists the caller's own notices.
// GET /api/v1/notices/mine
func (h *NoticeHandler) ListMine(c *gin.Context) {
	memberID := GetMemberID(c)
	if memberID == "" {
		response.Forbidden(c, 15001, "account is not linked to a roster member")
		return
	}

	notices, err := h.noticeSvc.ListByMember(c.Request.Context(), memberID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": notices})
}

// GetNotice returns one notice.
// GET /api/v1/notices/:id
func (h *NoticeHandler) GetNotice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "notice id is required")
		return
	}

	notice, err := h.noticeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleNoticeError(c, err)
		return
	}

	response.OK(c, notice)
}

// ResolveNotice records management's decision on a notice.
// PUT /api/v1/notices/:id/resolve
func (h *NoticeHandler) ResolveNotice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "notice id is required")
		return
	}

	var req dto.ResolveNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notice, err := h.noticeSvc.Resolve(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleNoticeError(c, err)
		return
	}

	response.OK(c, notice)
}

// handleNoticeError maps notice business errors to responses.
func (h *NoticeHandler) handleNoticeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoticeNotFound):
		response.NotFound(c, 15002, "notice not found")
	case errors.Is(err, service.ErrNoticeResolved):
		response.Conflict(c, 15003, "notice already resolved")
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 13001, "event not found")
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 12001, "member not found")
	default:
		response.InternalError(c)
	}
}
