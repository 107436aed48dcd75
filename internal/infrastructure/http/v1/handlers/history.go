package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/history"
	"vouchersync/internal/infrastructure/export"
	"vouchersync/internal/infrastructure/http/v1/dto"
)

// HistoryHandler serves the sync history listing and export.
type HistoryHandler struct {
	BaseHandler
	service *history.Service
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(service *history.Service) *HistoryHandler {
	return &HistoryHandler{service: service}
}

func (h *HistoryHandler) filter(c *gin.Context) history.Filter {
	return history.Filter{
		Region:      c.Query("region"),
		Destination: c.Query("destination"),
		Limit:       h.ParseIntQuery(c, "limit", 100),
	}
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context(), h.filter(c))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	h.OK(c, dto.HistoryResponse{Data: entries})
}

// Export handles GET /api/v1/history/export, returning an xlsx workbook.
func (h *HistoryHandler) Export(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context(), h.filter(c))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	filename := fmt.Sprintf("sync-history-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := export.HistoryXLSX(entries, c.Writer); err != nil {
		// Headers already sent; log is all we can do.
		_ = c.Error(apperror.NewInternal(err))
	}
}
