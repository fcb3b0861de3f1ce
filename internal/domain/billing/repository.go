package billing

import (
	"context"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

// Repository defines persistence for progress claims.
type Repository interface {
	GetByID(ctx context.Context, claimID id.ID) (*ProgressClaim, error)

	Create(ctx context.Context, c *ProgressClaim) error

	// SumPercent returns the total claimed percentage across all claims
	// of one order. Runs inside the caller's transaction during the cap
	// check.
	SumPercent(ctx context.Context, orderID id.ID) (types.Money, error)

	// ListByOrder returns claims for an order, oldest first.
	ListByOrder(ctx context.Context, orderID id.ID) ([]*ProgressClaim, error)

	// UpdatePaidToDate overwrites the paid-to-date projection.
	UpdatePaidToDate(ctx context.Context, claimID id.ID, paid types.Money) error
}
