package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"fabrika/internal/core/apperror"
	"fabrika/internal/domain/rates"
)

// RatesHandler exposes exchange rate lookups.
type RatesHandler struct {
	*BaseHandler
	provider rates.Provider
}

// NewRatesHandler creates a new rates handler.
func NewRatesHandler(base *BaseHandler, provider rates.Provider) *RatesHandler {
	return &RatesHandler{
		BaseHandler: base,
		provider:    provider,
	}
}

// Get handles GET /rates/:currency?date=2006-01-02.
func (h *RatesHandler) Get(c *gin.Context) {
	currency := c.Param("currency")
	if currency == "" {
		h.Error(c, apperror.NewValidation("currency is required"))
		return
	}

	var asOf *time.Time
	if date := c.Query("date"); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date, expected YYYY-MM-DD"))
			return
		}
		asOf = &t
	}

	result, err := h.provider.Rate(c.Request.Context(), currency, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"currency": currency,
		"rate":     result.Rate,
		"source":   result.Source,
		"date":     result.Date.Format("2006-01-02"),
	})
}
