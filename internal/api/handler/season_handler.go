package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// SeasonHandler handles active-season endpoints.
type SeasonHandler struct {
	seasonSvc service.SeasonService
}

// NewSeasonHandler creates the SeasonHandler.
func NewSeasonHandler(seasonSvc service.SeasonService) *SeasonHandler {
	return &SeasonHandler{seasonSvc: seasonSvc}
}

// GetActiveSeason returns the active season-year.
// GET /api/v1/season
func (h *SeasonHandler) GetActiveSeason(c *gin.Context) {
	result, err := h.seasonSvc.ActiveYear(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// SetActiveSeason switches the active season-year. Admin only.
// PUT /api/v1/season
func (h *SeasonHandler) SetActiveSeason(c *gin.Context) {
	var req dto.SetSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.seasonSvc.SetActiveYear(c.Request.Context(), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrSeasonYearInvalid) {
			response.BadRequest(c, 16001, "season year out of range")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
