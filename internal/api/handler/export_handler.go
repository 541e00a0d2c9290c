package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/service"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler handles file-export endpoints.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates the ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

func serveDownload(c *gin.Context, contentType, filename string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

// ExportEventRoll downloads an event roll as .xlsx.
// GET /api/v1/export/events/:id/roll
func (h *ExportHandler) ExportEventRoll(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		response.BadRequest(c, 10001, "event id is required")
		return
	}

	buf, filename, err := h.exportSvc.ExportEventRoll(c.Request.Context(), eventID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	serveDownload(c, xlsxContentType, filename, buf.Bytes())
}

// ExportRoster downloads the season roster as CSV.
// GET /api/v1/export/roster?season_year=2026
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	year, ok := seasonYearQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), year)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	serveDownload(c, csvContentType, filename, buf.Bytes())
}

// ExportSeasonCalendar downloads the season calendar as .ics.
// GET /api/v1/export/calendar?season_year=2026
func (h *ExportHandler) ExportSeasonCalendar(c *gin.Context) {
	year, ok := seasonYearQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSeasonCalendar(c.Request.Context(), year)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	serveDownload(c, icsContentType, filename, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 13001, "event not found")
	case errors.Is(err, service.ErrExportSeasonEmpty):
		response.NotFound(c, 18001, "no data to export for this season")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
