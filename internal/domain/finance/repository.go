package finance

import (
	"context"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// InvoiceRepository defines persistence for invoices and their lines.
type InvoiceRepository interface {
	// GetByID loads an invoice with its lines.
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// Create stores the invoice and all lines.
	Create(ctx context.Context, inv *Invoice) error

	// Delete removes the invoice and its lines.
	Delete(ctx context.Context, invoiceID id.ID) error

	// OpenBySupplier returns invoices with remaining balance > 0 for a
	// supplier, oldest first. Feeds FIFO allocation.
	OpenBySupplier(ctx context.Context, supplierID id.ID) ([]*Invoice, error)

	// UpdatePaidToDate overwrites the paid-to-date projection.
	UpdatePaidToDate(ctx context.Context, invoiceID id.ID, paid types.Money) error

	List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error)
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	SupplierID *id.ID
	OrderID    *id.ID
	Limit      int
	Offset     int
}

// PaymentRepository defines persistence for payments.
type PaymentRepository interface {
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)

	Create(ctx context.Context, p *Payment) error

	Delete(ctx context.Context, paymentID id.ID) error

	List(ctx context.Context, filter PaymentFilter) ([]*Payment, error)
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	SupplierID *id.ID
	Kind       *PaymentKind
	Limit      int
	Offset     int
}

// AllocationRepository defines persistence for settlement records.
type AllocationRepository interface {
	Create(ctx context.Context, a *Allocation) error

	ListByPayment(ctx context.Context, paymentID id.ID) ([]*Allocation, error)

	// SumByPayment returns the total already allocated from a payment.
	SumByPayment(ctx context.Context, paymentID id.ID) (types.Money, error)

	// SumByTarget returns the total allocated to one target.
	SumByTarget(ctx context.Context, kind TargetKind, targetID id.ID) (types.Money, error)

	// DeleteByPayment removes a payment's allocations and returns the
	// targets they pointed at, so paid-to-date can be re-derived.
	DeleteByPayment(ctx context.Context, paymentID id.ID) ([]TargetRef, error)
}
