package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/rates"
)

// RatesHandler exposes currency conversion for the admin UI.
type RatesHandler struct {
	BaseHandler
	provider rates.Provider
}

// NewRatesHandler creates a rates handler.
func NewRatesHandler(provider rates.Provider) *RatesHandler {
	return &RatesHandler{provider: provider}
}

// Convert handles GET /api/v1/rates/convert?from=&to=&amount=.
func (h *RatesHandler) Convert(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		h.Error(c, apperror.NewValidation("from and to are required"))
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.Error(c, apperror.NewValidation("amount must be a decimal number"))
		return
	}

	converted, err := rates.Convert(c.Request.Context(), h.provider, amount, from, to)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	h.OK(c, gin.H{
		"from":      from,
		"to":        to,
		"amount":    amount,
		"converted": converted,
	})
}
