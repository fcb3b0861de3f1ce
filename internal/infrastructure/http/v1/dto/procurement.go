package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/procurement"
)

// CreateQuoteRequest registers a supplier price offer.
type CreateQuoteRequest struct {
	MaterialID string `json:"materialId" binding:"required"`
	SupplierID string `json:"supplierId" binding:"required"`

	Quantity  types.Quantity  `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice" binding:"required"`
	Currency  string          `json:"currency" binding:"required"`

	VATRate      *int `json:"vatRate,omitempty"`
	VATInclusive bool `json:"vatInclusive,omitempty"`

	ManualRate *decimal.Decimal `json:"manualRate,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateQuoteRequest) ToEntity() (*procurement.Quote, error) {
	materialID, err := id.Parse(r.MaterialID)
	if err != nil {
		return nil, apperror.NewValidation("invalid material id")
	}
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id")
	}

	q := procurement.NewQuote(materialID, supplierID, r.Quantity, r.UnitPrice, r.Currency)
	if r.VATRate != nil {
		q.VATRate = *r.VATRate
	}
	q.VATInclusive = r.VATInclusive
	if r.ManualRate != nil {
		q.ManualRate = *r.ManualRate
	}
	return q, nil
}

// LockQuoteRequest pins the local-currency totals of a quote.
type LockQuoteRequest struct {
	// AsOf selects the rate date; latest published rate when omitted.
	AsOf *time.Time `json:"asOf,omitempty"`

	// Force recomputes an existing snapshot. Normal locks are write-once.
	Force bool `json:"force,omitempty"`
}

// ApproveQuoteRequest approves a quote and creates its order.
type ApproveQuoteRequest struct {
	AsOf *time.Time `json:"asOf,omitempty"`
}

// DeliveryRequest registers delivered quantity on an order.
type DeliveryRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
}
