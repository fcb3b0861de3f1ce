package procurement

import (
	"context"
	"fmt"
	"time"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/tx"
	"fabrika/internal/core/types"
	"fabrika/pkg/logger"
)

// Service drives the quote and order workflow.
type Service struct {
	quotes    QuoteRepository
	orders    OrderRepository
	lock      *CurrencyLockService
	txManager tx.Manager
}

// NewService creates a procurement service.
func NewService(quotes QuoteRepository, orders OrderRepository, lock *CurrencyLockService, txManager tx.Manager) *Service {
	return &Service{
		quotes:    quotes,
		orders:    orders,
		lock:      lock,
		txManager: txManager,
	}
}

// CreateQuote validates and stores a new quote.
func (s *Service) CreateQuote(ctx context.Context, q *Quote) error {
	if err := q.Validate(ctx); err != nil {
		return err
	}
	if q.Status == "" {
		q.Status = QuoteStatusPending
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	logger.Info(ctx, "quote created", "quote_id", q.ID, "supplier_id", q.SupplierID)
	return nil
}

// GetQuote loads one quote.
func (s *Service) GetQuote(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return s.quotes.GetByID(ctx, quoteID)
}

// ListQuotes lists quotes by filter.
func (s *Service) ListQuotes(ctx context.Context, filter QuoteFilter) ([]*Quote, error) {
	return s.quotes.List(ctx, filter)
}

// ApproveQuote locks the quote's currency amounts and creates the purchase
// order. Replaying the approval returns the existing order.
func (s *Service) ApproveQuote(ctx context.Context, quoteID id.ID, asOf *time.Time) (*PurchaseOrder, error) {
	if _, err := s.lock.LockQuote(ctx, quoteID, asOf, false); err != nil {
		return nil, err
	}

	var order *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		quote, err := s.quotes.GetForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.Status == QuoteStatusRejected {
			return apperror.NewConflict("rejected quote cannot be approved")
		}

		existing, err := s.orders.GetByQuote(ctx, quoteID)
		if err == nil {
			order = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		order = NewPurchaseOrder(quoteID, quote.Quantity, time.Now().UTC())
		if err := s.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		quote.Status = QuoteStatusApproved
		quote.Touch()
		if err := s.quotes.Update(ctx, quote); err != nil {
			return fmt.Errorf("update quote status: %w", err)
		}

		logger.Info(ctx, "quote approved", "quote_id", quoteID, "order_id", order.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RejectQuote marks a quote rejected. Approved quotes cannot be rejected.
func (s *Service) RejectQuote(ctx context.Context, quoteID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		quote, err := s.quotes.GetForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.Status == QuoteStatusApproved {
			return apperror.NewConflict("approved quote cannot be rejected")
		}
		quote.Status = QuoteStatusRejected
		quote.Touch()
		return s.quotes.Update(ctx, quote)
	})
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders lists orders by filter.
func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) ([]*PurchaseOrder, error) {
	return s.orders.List(ctx, filter)
}

// RegisterDelivery records goods received against an order and re-derives
// the delivery status.
func (s *Service) RegisterDelivery(ctx context.Context, orderID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("delivery quantity must be positive").
			WithDetail("field", "quantity")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		order.DeliveredQty += qty
		order.RecalcDeliveryStatus()
		order.Touch()
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		logger.Info(ctx, "delivery registered",
			"order_id", orderID,
			"quantity", qty.String(),
			"delivery_status", string(order.DeliveryStatus),
		)
		return nil
	})
}

// RegisterInvoiced records invoiced quantity against an order. Negative
// values reverse a deleted invoice line.
func (s *Service) RegisterInvoiced(ctx context.Context, orderID id.ID, qty types.Quantity) error {
	if qty.IsZero() {
		return nil
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		order.InvoicedQty += qty
		if order.InvoicedQty.IsNegative() {
			order.InvoicedQty = 0
		}
		order.Touch()
		return s.orders.Update(ctx, order)
	})
}
