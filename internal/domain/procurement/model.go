// Package procurement provides quotes, purchase orders, the currency lock
// and the FIFO matcher that binds vendor-location depletions to orders.
package procurement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// QuoteStatus tracks the quote approval workflow.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// VATRateExempt is the sentinel for VAT-exempt pricing; computes as 0.
const VATRateExempt = -1

// Quote is a supplier price offer for a material or work item. On approval
// its local-currency totals are locked once; the snapshot is the single
// source of truth for every downstream amount.
type Quote struct {
	entity.BaseDocument

	MaterialID id.ID `db:"material_id" json:"materialId"`
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Currency  string         `db:"currency" json:"currency"`

	VATRate      int  `db:"vat_rate" json:"vatRate"`
	VATInclusive bool `db:"vat_inclusive" json:"vatInclusive"`

	// ManualRate, when positive, wins over the provider at lock time.
	ManualRate types.Money `db:"manual_rate" json:"manualRate"`

	Status QuoteStatus `db:"status" json:"status"`

	// Lock snapshot, written once at approval. Zero gross means unlocked.
	LockedAt         *time.Time  `db:"locked_at" json:"lockedAt,omitempty"`
	LockedRate       types.Money `db:"locked_rate" json:"lockedRate"`
	LockedRateDate   *time.Time  `db:"locked_rate_date" json:"lockedRateDate,omitempty"`
	LockedRateSource string      `db:"locked_rate_source" json:"lockedRateSource,omitempty"`
	LockedNet        types.Money `db:"locked_net" json:"lockedNet"`
	LockedVAT        types.Money `db:"locked_vat" json:"lockedVat"`
	LockedGross      types.Money `db:"locked_gross" json:"lockedGross"`
}

// LockSnapshot is the frozen local-currency result of a currency lock.
type LockSnapshot struct {
	LockedAt   time.Time   `json:"lockedAt"`
	Rate       types.Money `json:"rate"`
	RateDate   time.Time   `json:"rateDate"`
	RateSource string      `json:"rateSource"`
	Net        types.Money `json:"net"`
	VAT        types.Money `json:"vat"`
	Gross      types.Money `json:"gross"`
}

// NewQuote creates a pending quote.
func NewQuote(materialID, supplierID id.ID, qty types.Quantity, unitPrice types.Money, currency string) *Quote {
	return &Quote{
		BaseDocument: entity.NewBaseDocument(),
		MaterialID:   materialID,
		SupplierID:   supplierID,
		Quantity:     qty,
		UnitPrice:    unitPrice,
		Currency:     currency,
		VATRate:      20,
		Status:       QuoteStatusPending,
	}
}

// Validate implements entity.Validatable.
func (q *Quote) Validate(ctx context.Context) error {
	if id.IsNil(q.MaterialID) {
		return apperror.NewValidation("material is required").
			WithDetail("field", "materialId")
	}
	if id.IsNil(q.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if !q.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if q.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	if q.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	return nil
}

// IsLocked reports whether the lock snapshot has been written.
// A locked quote is never recomputed unless explicitly forced.
func (q *Quote) IsLocked() bool {
	return q.LockedGross.IsPositive()
}

// Snapshot returns the stored lock snapshot.
func (q *Quote) Snapshot() LockSnapshot {
	snap := LockSnapshot{
		Rate:       q.LockedRate,
		RateSource: q.LockedRateSource,
		Net:        q.LockedNet,
		VAT:        q.LockedVAT,
		Gross:      q.LockedGross,
	}
	if q.LockedAt != nil {
		snap.LockedAt = *q.LockedAt
	}
	if q.LockedRateDate != nil {
		snap.RateDate = *q.LockedRateDate
	}
	return snap
}

// EffectiveVATRate resolves the exempt sentinel to 0.
func (q *Quote) EffectiveVATRate() int {
	if q.VATRate == VATRateExempt {
		return 0
	}
	return q.VATRate
}

// OriginalAmounts computes net, VAT and gross in the quote currency,
// unrounded. Rounding happens once, after the rate multiplication.
func (q *Quote) OriginalAmounts() (net, vat, gross types.Money) {
	vatFactor := types.Percent(decimal.NewFromInt(int64(q.EffectiveVATRate())))
	amount := q.UnitPrice.Mul(q.Quantity.Decimal())

	if q.VATInclusive {
		gross = amount
		net = gross.Div(decimal.NewFromInt(1).Add(vatFactor))
		vat = gross.Sub(net)
		return net, vat, gross
	}

	net = amount
	vat = net.Mul(vatFactor)
	gross = net.Add(vat)
	return net, vat, gross
}

// DeliveryStatus is derived from delivered vs. ordered quantity.
type DeliveryStatus string

const (
	DeliveryPending  DeliveryStatus = "pending"
	DeliveryPartial  DeliveryStatus = "partial"
	DeliveryComplete DeliveryStatus = "complete"
)

// PurchaseOrder formalizes an approved quote. One-to-one with its quote.
type PurchaseOrder struct {
	entity.BaseDocument

	QuoteID id.ID `db:"quote_id" json:"quoteId"`

	OrderDate time.Time `db:"order_date" json:"orderDate"`

	OrderedQty   types.Quantity `db:"ordered_qty" json:"orderedQty"`
	DeliveredQty types.Quantity `db:"delivered_qty" json:"deliveredQty"`
	InvoicedQty  types.Quantity `db:"invoiced_qty" json:"invoicedQty"`

	// PaidToDate is recomputed from allocations on every settlement
	// change, never incremented in place.
	PaidToDate types.Money `db:"paid_to_date" json:"paidToDate"`

	DeliveryStatus DeliveryStatus `db:"delivery_status" json:"deliveryStatus"`

	Note string `db:"note" json:"note,omitempty"`
}

// NewPurchaseOrder creates an order from an approved quote.
func NewPurchaseOrder(quoteID id.ID, orderedQty types.Quantity, orderDate time.Time) *PurchaseOrder {
	o := &PurchaseOrder{
		BaseDocument: entity.NewBaseDocument(),
		QuoteID:      quoteID,
		OrderDate:    orderDate,
		OrderedQty:   orderedQty,
	}
	o.RecalcDeliveryStatus()
	return o
}

// RecalcDeliveryStatus re-derives the status from quantities.
// Runs on every save.
func (o *PurchaseOrder) RecalcDeliveryStatus() {
	switch {
	case o.DeliveredQty.IsZero() || o.DeliveredQty.IsNegative():
		o.DeliveryStatus = DeliveryPending
	case o.DeliveredQty < o.OrderedQty:
		o.DeliveryStatus = DeliveryPartial
	default:
		o.DeliveryStatus = DeliveryComplete
	}
}

// IsOpen reports whether the order still accepts deliveries.
func (o *PurchaseOrder) IsOpen() bool {
	return o.DeliveryStatus != DeliveryComplete
}

// RemainingToDeliver returns ordered minus delivered, floored at zero.
func (o *PurchaseOrder) RemainingToDeliver() types.Quantity {
	remaining := o.OrderedQty - o.DeliveredQty
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingToInvoice returns ordered minus invoiced, floored at zero.
func (o *PurchaseOrder) RemainingToInvoice() types.Quantity {
	remaining := o.OrderedQty - o.InvoicedQty
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CompletionPercent returns delivered/ordered as a percentage, capped at 100.
func (o *PurchaseOrder) CompletionPercent() types.Money {
	if o.OrderedQty.IsZero() {
		return decimal.Zero
	}
	pct := o.DeliveredQty.Decimal().
		Div(o.OrderedQty.Decimal()).
		Mul(decimal.NewFromInt(100))
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
