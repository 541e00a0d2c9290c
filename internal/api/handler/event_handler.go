package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// EventHandler handles event endpoints.
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler creates the EventHandler.
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents lists a season's events in chronological order.
// GET /api/v1/events?season_year=2026
func (h *EventHandler) ListEvents(c *gin.Context) {
	year, ok := seasonYearQuery(c)
	if !ok {
		return
	}

	events, err := h.eventSvc.ListBySeason(c.Request.Context(), year)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// GetEvent returns one event with its derived status.
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	event, err := h.eventSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateEvent schedules an event.
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent patches an event.
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent removes an event.
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleEventError maps event business errors to responses.
func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 13001, "event not found")
	case errors.Is(err, service.ErrEventDateInvalid):
		response.BadRequest(c, 13002, "event window is invalid")
	default:
		response.InternalError(c)
	}
}
