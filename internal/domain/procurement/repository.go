package procurement

import (
	"context"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// QuoteRepository defines persistence for quotes.
type QuoteRepository interface {
	GetByID(ctx context.Context, quoteID id.ID) (*Quote, error)

	// GetForUpdate loads a quote with a row lock. Must run inside a
	// transaction; serializes concurrent lock attempts on the same quote.
	GetForUpdate(ctx context.Context, quoteID id.ID) (*Quote, error)

	Create(ctx context.Context, q *Quote) error

	// Update persists all mutable fields with an optimistic version check.
	Update(ctx context.Context, q *Quote) error

	List(ctx context.Context, filter QuoteFilter) ([]*Quote, error)
}

// QuoteFilter narrows quote listings.
type QuoteFilter struct {
	MaterialID *id.ID
	SupplierID *id.ID
	Status     *QuoteStatus
	Limit      int
	Offset     int
}

// OrderRepository defines persistence for purchase orders.
type OrderRepository interface {
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// GetForUpdate loads an order with a row lock. Must run inside a
	// transaction; the progress-billing cap check depends on it.
	GetForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// GetByQuote returns the order created from a quote, or NotFound.
	GetByQuote(ctx context.Context, quoteID id.ID) (*PurchaseOrder, error)

	Create(ctx context.Context, o *PurchaseOrder) error

	Update(ctx context.Context, o *PurchaseOrder) error

	// UpdatePaidToDate overwrites the paid-to-date projection.
	UpdatePaidToDate(ctx context.Context, orderID id.ID, paid types.Money) error

	// OpenByMaterial returns orders for a material whose delivery is not
	// complete, oldest first. Feeds the FIFO matcher.
	OpenByMaterial(ctx context.Context, materialID id.ID) ([]*PurchaseOrder, error)

	List(ctx context.Context, filter OrderFilter) ([]*PurchaseOrder, error)
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	MaterialID     *id.ID
	SupplierID     *id.ID
	DeliveryStatus *DeliveryStatus
	Limit          int
	Offset         int
}
