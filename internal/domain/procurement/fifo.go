package procurement

import (
	"context"
	"fmt"

	"fabrika/internal/core/id"
	"fabrika/internal/domain/ledger"
	"fabrika/pkg/logger"
)

// FifoMatcher binds a floating vendor-location depletion to the oldest open
// purchase order that still has pending goods sitting at the vendor.
//
// It implements transfer.Matcher and runs after the transfer commits; a
// failed or empty match leaves the movement floating, which is a legal state.
type FifoMatcher struct {
	orders OrderRepository
	ledger *ledger.Service
}

// NewFifoMatcher creates a FIFO matcher.
func NewFifoMatcher(orders OrderRepository, ledgerSvc *ledger.Service) *FifoMatcher {
	return &FifoMatcher{orders: orders, ledger: ledgerSvc}
}

// MatchAndBind scans open orders for the movement's material oldest first and
// binds the movement to the first order with pending vendor stock. Returns
// nil when no candidate matches.
//
// Binding is idempotent: a movement that already carries an order link is
// left untouched.
func (m *FifoMatcher) MatchAndBind(ctx context.Context, out ledger.Movement) (*id.ID, error) {
	candidates, err := m.orders.OpenByMaterial(ctx, out.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}

	for _, order := range candidates {
		pending, err := m.ledger.PendingInVendor(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("pending in vendor for order %s: %w", order.ID, err)
		}
		if !pending.IsPositive() {
			continue
		}

		bound, err := m.ledger.BindOrder(ctx, out.LineID, order.ID)
		if err != nil {
			return nil, err
		}
		if !bound {
			// Already bound by an earlier run. The caller's copy predates
			// the binding, so report the stored link.
			stored, err := m.ledger.GetByLineID(ctx, out.LineID)
			if err != nil {
				return nil, fmt.Errorf("movement %s: %w", out.LineID, err)
			}
			return stored.OrderID, nil
		}

		orderID := order.ID
		logger.Info(ctx, "movement matched to order",
			"line_id", out.LineID,
			"order_id", orderID,
			"pending", pending.String(),
		)
		return &orderID, nil
	}

	return nil, nil
}
