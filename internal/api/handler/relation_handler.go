package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// RelationHandler fronts the generic relations gateway consumed by
// field devices. Queries ride in the request body so equality filters
// keep their types.
type RelationHandler struct {
	relationSvc service.RelationService
}

// NewRelationHandler creates the RelationHandler.
func NewRelationHandler(relationSvc service.RelationService) *RelationHandler {
	return &RelationHandler{relationSvc: relationSvc}
}

// Select runs a filtered read.
// POST /api/v1/relations/:relation/select
func (h *RelationHandler) Select(c *gin.Context) {
	var q dto.RelationQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.relationSvc.Select(c.Request.Context(), c.Param("relation"), &q)
	if err != nil {
		h.handleRelationError(c, err)
		return
	}

	response.OK(c, result)
}

// Insert appends rows without dedup.
// POST /api/v1/relations/:relation/insert
func (h *RelationHandler) Insert(c *gin.Context) {
	var w dto.RelationWrite
	if err := c.ShouldBindJSON(&w); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.relationSvc.Insert(c.Request.Context(), c.Param("relation"), &w)
	if err != nil {
		h.handleRelationError(c, err)
		return
	}

	response.OK(c, result)
}

// Upsert writes rows keyed on the conflict columns.
// POST /api/v1/relations/:relation/upsert
func (h *RelationHandler) Upsert(c *gin.Context) {
	var w dto.RelationWrite
	if err := c.ShouldBindJSON(&w); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}
	if len(w.ConflictKey) == 0 {
		response.BadRequest(c, 17001, "conflict_key is required for upsert")
		return
	}

	result, err := h.relationSvc.Upsert(c.Request.Context(), c.Param("relation"), &w)
	if err != nil {
		h.handleRelationError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete removes rows matching the filter.
// POST /api/v1/relations/:relation/delete
func (h *RelationHandler) Delete(c *gin.Context) {
	var q dto.RelationQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.relationSvc.Delete(c.Request.Context(), c.Param("relation"), &q)
	if err != nil {
		h.handleRelationError(c, err)
		return
	}

	response.OK(c, result)
}

// Count counts rows matching the filter.
// POST /api/v1/relations/:relation/count
func (h *RelationHandler) Count(c *gin.Context) {
	var q dto.RelationQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.relationSvc.Count(c.Request.Context(), c.Param("relation"), &q)
	if err != nil {
		h.handleRelationError(c, err)
		return
	}

	response.OK(c, result)
}

// handleRelationError maps gateway errors to responses.
func (h *RelationHandler) handleRelationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrUnknownRelation):
		response.NotFound(c, 17002, "unknown relation")
	case errors.Is(err, repository.ErrUnknownColumn):
		response.BadRequest(c, 17003, "unknown column")
	case errors.Is(err, repository.ErrEmptyFilter):
		response.BadRequest(c, 17004, "filter must not be empty")
	case errors.Is(err, repository.ErrEmptyConflictKey):
		response.BadRequest(c, 17001, "conflict_key is required for upsert")
	default:
		response.InternalError(c)
	}
}
