// Package ledger provides the append-only stock movement ledger.
// Entries are immutable once written; balances are projections over them.
package ledger

import (
	"context"
	"time"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// Direction defines how a movement affects the balance.
type Direction string

const (
	// DirectionIn increases balance.
	DirectionIn Direction = "in"
	// DirectionOut decreases balance.
	DirectionOut Direction = "out"
	// DirectionReturn decreases balance (goods sent back to the supplier).
	DirectionReturn Direction = "return"
)

// RefKind is the closed set of document kinds that create movements.
// Modeled as an enum rather than free-text tags: idempotent dedup and
// reversal both key on it.
type RefKind string

const (
	RefKindTransfer    RefKind = "transfer"
	RefKindInvoiceLine RefKind = "invoice_line"
	RefKindManual      RefKind = "manual"
	RefKindReturn      RefKind = "return"
)

// RefDirection distinguishes the two legs of a dual-leg document.
type RefDirection string

const (
	RefOut RefDirection = "OUT"
	RefIn  RefDirection = "IN"
)

// Ref identifies the document leg that produced a movement. Together with
// material and warehouse it forms the idempotency key for dual-leg writes.
type Ref struct {
	Kind      RefKind      `db:"ref_kind" json:"refKind"`
	ID        id.ID        `db:"ref_id" json:"refId"`
	Direction RefDirection `db:"ref_direction" json:"refDirection"`
}

// Movement is one ledger entry. Quantity is a non-negative magnitude;
// Direction carries the sign. Never updated, only superseded by
// compensating entries.
type Movement struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	MaterialID  id.ID `db:"material_id" json:"materialId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	Direction Direction      `db:"direction" json:"direction"`

	// Date is the business date of the movement.
	Date time.Time `db:"date" json:"date"`

	// OrderID links the movement to a purchase order, directly or via the
	// FIFO matcher. Nil for floating movements.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	// SupplierID records the source supplier on inbound movements.
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// Ref is nil for unconditional one-off postings.
	RefKind      *RefKind      `db:"ref_kind" json:"refKind,omitempty"`
	RefID        *id.ID        `db:"ref_id" json:"refId,omitempty"`
	RefDirection *RefDirection `db:"ref_direction" json:"refDirection,omitempty"`

	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement with generated LineID.
func NewMovement(materialID, warehouseID id.ID, qty types.Quantity, direction Direction, date time.Time) Movement {
	return Movement{
		LineID:      id.New(),
		MaterialID:  materialID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		Direction:   direction,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithRef tags the movement with its idempotency reference.
func (m Movement) WithRef(ref Ref) Movement {
	m.RefKind = &ref.Kind
	m.RefID = &ref.ID
	m.RefDirection = &ref.Direction
	return m
}

// WithOrder binds the movement to a purchase order.
func (m Movement) WithOrder(orderID id.ID) Movement {
	m.OrderID = &orderID
	return m
}

// SignedQuantity returns quantity with sign applied by direction.
// In = positive; Out and Return = negative.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.Direction == DirectionIn {
		return m.Quantity
	}
	return m.Quantity.Neg()
}

// HasRef reports whether the movement carries an idempotency reference.
func (m *Movement) HasRef() bool {
	return m.RefKind != nil && m.RefID != nil && m.RefDirection != nil
}

// Validate checks entry invariants before posting.
func (m *Movement) Validate(ctx context.Context) error {
	if id.IsNil(m.MaterialID) {
		return apperror.NewValidation("material is required").
			WithDetail("field", "materialId")
	}
	if id.IsNil(m.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if !m.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", m.Quantity.String())
	}
	switch m.Direction {
	case DirectionIn, DirectionOut, DirectionReturn:
	default:
		return apperror.NewValidation("invalid movement direction").
			WithDetail("field", "direction").
			WithDetail("value", string(m.Direction))
	}
	if m.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
