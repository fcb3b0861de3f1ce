// Package finance provides supplier invoices, payments and the FIFO
// settlement engine that allocates payments across open balances.
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// Invoice is a supplier invoice. Totals are in local currency, frozen at
// creation from the locked contract amounts; they are never re-multiplied
// by a rate.
type Invoice struct {
	entity.BaseDocument

	InvoiceNo  string `db:"invoice_no" json:"invoiceNo"`
	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`

	// OrderID links the invoice to a purchase order when known.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	Date time.Time `db:"date" json:"date"`

	NetTotal   types.Money `db:"net_total" json:"netTotal"`
	VATTotal   types.Money `db:"vat_total" json:"vatTotal"`
	GrossTotal types.Money `db:"gross_total" json:"grossTotal"`

	// PaidToDate is recomputed from allocations, never incremented.
	PaidToDate types.Money `db:"paid_to_date" json:"paidToDate"`

	Note string `db:"note" json:"note,omitempty"`

	Lines []InvoiceLine `db:"-" json:"lines,omitempty"`
}

// NewInvoice creates an invoice dated today.
func NewInvoice(supplierID id.ID) *Invoice {
	return &Invoice{
		BaseDocument: entity.NewBaseDocument(),
		SupplierID:   supplierID,
		Date:         time.Now(),
	}
}

// InvoiceLine is one invoice position. Material lines post stock into the
// supplier's vendor-virtual location when the invoice is created.
type InvoiceLine struct {
	LineID    id.ID `db:"line_id" json:"lineId"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`

	MaterialID id.ID  `db:"material_id" json:"materialId"`
	OrderID    *id.ID `db:"order_id" json:"orderId,omitempty"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	VATRate   int         `db:"vat_rate" json:"vatRate"`
	Net       types.Money `db:"net" json:"net"`
	VATAmount types.Money `db:"vat_amount" json:"vatAmount"`
	Gross     types.Money `db:"gross" json:"gross"`

	// IsService suppresses the stock movement for labor/service lines.
	IsService bool `db:"is_service" json:"isService"`
}

// RecalcAmounts derives line net/VAT/gross from quantity, price and rate.
func (l *InvoiceLine) RecalcAmounts() {
	net := l.UnitPrice.Mul(l.Quantity.Decimal())
	l.Net = types.RoundMoney(net)
	l.Gross = types.RoundMoney(net.Mul(
		decimal.NewFromInt(1).Add(types.Percent(decimal.NewFromInt(int64(l.VATRate))))))
	l.VATAmount = l.Gross.Sub(l.Net)
}

// RecalcTotals rolls lines up into invoice totals. Runs whenever a line
// changes.
func (inv *Invoice) RecalcTotals() {
	var net, vat, gross types.Money
	for i := range inv.Lines {
		net = net.Add(inv.Lines[i].Net)
		vat = vat.Add(inv.Lines[i].VATAmount)
		gross = gross.Add(inv.Lines[i].Gross)
	}
	inv.NetTotal = net
	inv.VATTotal = vat
	inv.GrossTotal = gross
}

// RemainingBalance returns gross total minus paid-to-date.
func (inv *Invoice) RemainingBalance() types.Money {
	return inv.GrossTotal.Sub(inv.PaidToDate)
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if id.IsNil(inv.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if inv.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if len(inv.Lines) == 0 {
		return apperror.NewValidation("invoice needs at least one line").
			WithDetail("field", "lines")
	}
	for i := range inv.Lines {
		l := &inv.Lines[i]
		if id.IsNil(l.MaterialID) {
			return apperror.NewValidation("line material is required").
				WithDetail("line", i)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line", i).
				WithDetail("value", l.Quantity.String())
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("line unit price cannot be negative").
				WithDetail("line", i)
		}
	}
	return nil
}

// PaymentKind is how the money moved.
type PaymentKind string

const (
	PaymentCash   PaymentKind = "cash"
	PaymentWire   PaymentKind = "wire"
	PaymentCheque PaymentKind = "cheque"
)

// Payment is money sent to a supplier. Allocations consume it; whatever
// stays unallocated is the payment's advance balance, always derived as
// amount minus the allocation sum.
type Payment struct {
	entity.BaseDocument

	PaymentNo  string `db:"payment_no" json:"paymentNo"`
	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`

	Amount types.Money `db:"amount" json:"amount"`
	Date   time.Time   `db:"date" json:"date"`

	Kind PaymentKind `db:"kind" json:"kind"`

	// ChequeDueDate applies to cheque payments; defaults to the payment
	// date when not given.
	ChequeDueDate *time.Time `db:"cheque_due_date" json:"chequeDueDate,omitempty"`

	// ClaimID optionally targets one progress claim directly.
	ClaimID *id.ID `db:"claim_id" json:"claimId,omitempty"`

	Note string `db:"note" json:"note,omitempty"`
}

// NewPayment creates a payment dated today.
func NewPayment(supplierID id.ID, amount types.Money, kind PaymentKind) *Payment {
	return &Payment{
		BaseDocument: entity.NewBaseDocument(),
		SupplierID:   supplierID,
		Amount:       amount,
		Date:         time.Now(),
		Kind:         kind,
	}
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(ctx context.Context) error {
	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if !p.Amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", p.Amount.String())
	}
	if p.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	switch p.Kind {
	case PaymentCash, PaymentWire, PaymentCheque:
	default:
		return apperror.NewValidation("invalid payment kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}
	return nil
}

// TargetKind distinguishes settlement targets.
type TargetKind string

const (
	TargetInvoice TargetKind = "invoice"
	TargetClaim   TargetKind = "claim"
)

// TargetRef orders one settlement target for allocation.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   id.ID      `json:"id"`
}

// Allocation is the normalized payment-to-target settlement record.
// Created once, never mutated; reversal means deletion plus re-derivation
// of the target's paid-to-date.
type Allocation struct {
	ID id.ID `db:"id" json:"id"`

	PaymentID id.ID `db:"payment_id" json:"paymentId"`

	TargetKind TargetKind `db:"target_kind" json:"targetKind"`
	TargetID   id.ID      `db:"target_id" json:"targetId"`

	Amount types.Money `db:"amount" json:"amount"`
	Date   time.Time   `db:"date" json:"date"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
