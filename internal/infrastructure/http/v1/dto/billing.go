package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/domain/billing"
)

// CreateClaimRequest creates a progress claim against an order.
type CreateClaimRequest struct {
	OrderID    string          `json:"orderId" binding:"required"`
	Percentage decimal.Decimal `json:"percentage" binding:"required"`
	Date       *time.Time      `json:"date,omitempty"`

	StopajRate  int `json:"stopajRate,omitempty"`
	TeminatRate int `json:"teminatRate,omitempty"`

	AdvanceDeduction decimal.Decimal `json:"advanceDeduction,omitempty"`
	OtherDeductions  decimal.Decimal `json:"otherDeductions,omitempty"`

	Note string `json:"note,omitempty"`
}

// ToRequest converts the DTO into a domain claim request.
func (r *CreateClaimRequest) ToRequest() (billing.CreateClaimRequest, error) {
	orderID, err := id.Parse(r.OrderID)
	if err != nil {
		return billing.CreateClaimRequest{}, apperror.NewValidation("invalid order id")
	}

	req := billing.CreateClaimRequest{
		OrderID:          orderID,
		Percentage:       r.Percentage,
		StopajRate:       r.StopajRate,
		TeminatRate:      r.TeminatRate,
		AdvanceDeduction: r.AdvanceDeduction,
		OtherDeductions:  r.OtherDeductions,
		Note:             r.Note,
	}
	if r.Date != nil {
		req.Date = *r.Date
	} else {
		req.Date = time.Now()
	}
	return req, nil
}
