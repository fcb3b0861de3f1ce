// Package billing provides progress-billing claims against purchase orders.
// Claim amounts derive from the order quote's locked contract totals; no
// component here ever re-applies a currency rate.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// ProgressClaim is one period's claimed percentage of completion for an
// order, with all derived amounts frozen in local currency at creation.
type ProgressClaim struct {
	entity.BaseDocument

	ClaimNo string `db:"claim_no" json:"claimNo"`
	OrderID id.ID  `db:"order_id" json:"orderId"`

	Date time.Time `db:"date" json:"date"`

	// Percentage claimed this period, 2 decimal places.
	Percentage types.Money `db:"percentage" json:"percentage"`

	Gross types.Money `db:"gross" json:"gross"`

	VATRate   int         `db:"vat_rate" json:"vatRate"`
	VATAmount types.Money `db:"vat_amount" json:"vatAmount"`

	// Stopaj is the withholding tax deducted from the claim.
	StopajRate   int         `db:"stopaj_rate" json:"stopajRate"`
	StopajAmount types.Money `db:"stopaj_amount" json:"stopajAmount"`

	// Teminat is the retention held back until contract completion.
	TeminatRate   int         `db:"teminat_rate" json:"teminatRate"`
	TeminatAmount types.Money `db:"teminat_amount" json:"teminatAmount"`

	AdvanceDeduction types.Money `db:"advance_deduction" json:"advanceDeduction"`
	OtherDeductions  types.Money `db:"other_deductions" json:"otherDeductions"`

	// NetPayable = (gross + vat) - (stopaj + teminat + advance + other).
	// May be negative; that is not an error.
	NetPayable types.Money `db:"net_payable" json:"netPayable"`

	// PaidToDate is recomputed from allocations, never incremented.
	PaidToDate types.Money `db:"paid_to_date" json:"paidToDate"`

	Approved bool `db:"approved" json:"approved"`

	Note string `db:"note" json:"note,omitempty"`
}

// Validate implements entity.Validatable.
func (c *ProgressClaim) Validate(ctx context.Context) error {
	if id.IsNil(c.OrderID) {
		return apperror.NewValidation("order is required").
			WithDetail("field", "orderId")
	}
	if !c.Percentage.IsPositive() {
		return apperror.NewValidation("claimed percentage must be positive").
			WithDetail("field", "percentage").
			WithDetail("value", c.Percentage.String())
	}
	if c.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewValidation("claimed percentage cannot exceed 100").
			WithDetail("field", "percentage").
			WithDetail("value", c.Percentage.String())
	}
	if c.StopajRate < 0 || c.StopajRate > 100 {
		return apperror.NewValidation("stopaj rate must be between 0 and 100").
			WithDetail("field", "stopajRate")
	}
	if c.TeminatRate < 0 || c.TeminatRate > 100 {
		return apperror.NewValidation("teminat rate must be between 0 and 100").
			WithDetail("field", "teminatRate")
	}
	if c.AdvanceDeduction.IsNegative() || c.OtherDeductions.IsNegative() {
		return apperror.NewValidation("deductions cannot be negative")
	}
	if c.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// RemainingBalance returns how much of the claim is still unpaid.
// The settlement target is the gross plus VAT accrued by the claim.
func (c *ProgressClaim) RemainingBalance() types.Money {
	return c.Gross.Add(c.VATAmount).Sub(c.PaidToDate)
}
