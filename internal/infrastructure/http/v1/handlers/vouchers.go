package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/source"
	"vouchersync/internal/infrastructure/http/v1/dto"
	"vouchersync/internal/infrastructure/http/v1/middleware"
)

const dateLayout = "2006-01-02"

// VouchersHandler proxies voucher records from the source accounting API.
type VouchersHandler struct {
	BaseHandler
	client source.Client
}

// NewVouchersHandler creates a vouchers handler.
func NewVouchersHandler(client source.Client) *VouchersHandler {
	return &VouchersHandler{client: client}
}

// List handles GET /api/v1/vouchers?region=&from=&to=.
func (h *VouchersHandler) List(c *gin.Context) {
	region := c.Query("region")
	if region == "" {
		h.Error(c, apperror.NewValidation("region is required"))
		return
	}
	if !middleware.RequireRegion(region, c) {
		return
	}

	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("to must be YYYY-MM-DD"))
		return
	}
	if to.Before(from) {
		h.Error(c, apperror.NewValidation("to must not be before from"))
		return
	}

	records, err := h.client.FetchVouchers(c.Request.Context(), region, from, to)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	h.OK(c, dto.VouchersResponse{Data: records})
}
