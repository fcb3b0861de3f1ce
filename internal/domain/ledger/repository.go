package ledger

import (
	"context"
	"time"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// Repository defines persistence for the stock ledger.
type Repository interface {
	// Insert appends movements unconditionally (used during posting).
	Insert(ctx context.Context, movements []Movement) error

	// InsertIfAbsent appends a movement unless one already exists with the
	// same (ref_kind, ref_id, ref_direction, material_id, warehouse_id).
	// Returns false when the entry was already present.
	InsertIfAbsent(ctx context.Context, m Movement) (bool, error)

	// DeleteByRef removes all movements written under a document reference.
	// Used only for document reversal (e.g. invoice deletion); normal
	// operation never deletes ledger entries.
	DeleteByRef(ctx context.Context, kind RefKind, refID id.ID) error

	// BindOrder sets the order link on a movement if and only if it is
	// still unbound. Returns false when the movement was already bound.
	BindOrder(ctx context.Context, lineID, orderID id.ID) (bool, error)

	// Balance returns sum(in) - sum(out) - sum(return) for one
	// material+warehouse pair.
	Balance(ctx context.Context, materialID, warehouseID id.ID) (types.Quantity, error)

	// AvailableBalance returns the material balance across all warehouses
	// whose kind is not consumption.
	AvailableBalance(ctx context.Context, materialID id.ID) (types.Quantity, error)

	// PendingInVendor returns sum(in) - sum(out) over vendor-virtual
	// warehouses for one order: goods invoiced but not yet shipped out.
	PendingInVendor(ctx context.Context, orderID id.ID) (types.Quantity, error)

	// ListByRef retrieves movements written under a document reference.
	ListByRef(ctx context.Context, kind RefKind, refID id.ID) ([]Movement, error)

	// GetByLineID retrieves a single movement by its line identifier.
	GetByLineID(ctx context.Context, lineID id.ID) (*Movement, error)

	// History returns movements for a material, newest first.
	History(ctx context.Context, materialID id.ID, filter HistoryFilter) ([]Movement, error)
}

// HistoryFilter narrows movement history queries.
type HistoryFilter struct {
	WarehouseID *id.ID
	Direction   *Direction
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}
