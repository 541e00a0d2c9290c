package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// MemberHandler handles roster endpoints.
type MemberHandler struct {
	memberSvc service.MemberService
}

// NewMemberHandler creates the MemberHandler.
func NewMemberHandler(memberSvc service.MemberService) *MemberHandler {
	return &MemberHandler{memberSvc: memberSvc}
}

// seasonYearQuery parses the required season_year query parameter.
func seasonYearQuery(c *gin.Context) (int, bool) {
	raw := c.Query("season_year")
	if raw == "" {
		response.BadRequest(c, 10001, "season_year is required")
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 {
		response.BadRequest(c, 10001, "season_year is not a valid year")
		return 0, false
	}
	return year, true
}

// ListMembers lists the season roster.
// GET /api/v1/members?season_year=2026
func (h *MemberHandler) ListMembers(c *gin.Context) {
	year, ok := seasonYearQuery(c)
	if !ok {
		return
	}

	members, err := h.memberSvc.ListBySeason(c.Request.Context(), year)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": members})
}

// ListMembersGrouped lists the roster bucketed by trabajadera.
// GET /api/v1/members/grouped?season_year=2026
func (h *MemberHandler) ListMembersGrouped(c *gin.Context) {
	year, ok := seasonYearQuery(c)
	if !ok {
		return
	}

	groups, err := h.memberSvc.ListGrouped(c.Request.Context(), year)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"groups": groups})
}

// GetMember returns one roster entry.
// GET /api/v1/members/:id
func (h *MemberHandler) GetMember(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "member id is required")
		return
	}

	member, err := h.memberSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, member)
}

// CreateMember adds a costalero to the roster.
// POST /api/v1/members
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	member, err := h.memberSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.Created(c, member)
}

// UpdateMember patches a roster entry.
// PUT /api/v1/members/:id
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "member id is required")
		return
	}

	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	member, err := h.memberSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, member)
}

// DeleteMember removes a roster entry.
// DELETE /api/v1/members/:id
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "member id is required")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.memberSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, nil)
}

// CloneSeason copies a season roster into a new year.
// POST /api/v1/members/clone-season
func (h *MemberHandler) CloneSeason(c *gin.Context) {
	var req dto.CloneSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.memberSvc.CloneSeason(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.Created(c, gin.H{"cloned": count})
}

// handleMemberError maps roster business errors to responses.
func (h *MemberHandler) handleMemberError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 12001, "member not found")
	case errors.Is(err, service.ErrSeasonEmpty):
		response.BadRequest(c, 12002, "source season has no members")
	case errors.Is(err, service.ErrSeasonSameYear):
		response.BadRequest(c, 12003, "target season must differ from source")
	case errors.Is(err, service.ErrSeasonNotEmpty):
		response.Conflict(c, 12004, "target season already has members")
	default:
		response.InternalError(c)
	}
}
