package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/tx"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/billing"
	"fabrika/internal/domain/procurement"
	"fabrika/pkg/logger"
	"fabrika/pkg/numerator"
)

// PaymentNumberPrefix prefixes generated payment numbers.
const PaymentNumberPrefix = "PAY"

// ChangeAuditor records document-level change history.
type ChangeAuditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// AllocationEngine settles payments against invoices and progress claims.
//
// Allocation is strict FIFO over the target order; records are created and
// never mutated. A payment's advance is always derived as amount minus the
// allocation sum, so deleting allocations can never leave a stale counter.
type AllocationEngine struct {
	payments    PaymentRepository
	invoices    InvoiceRepository
	allocations AllocationRepository
	claims      billing.Repository
	orders      procurement.OrderRepository
	numbers     Numberer
	txManager   tx.Manager
	auditor     ChangeAuditor
}

// NewAllocationEngine creates an allocation engine.
func NewAllocationEngine(
	payments PaymentRepository,
	invoices InvoiceRepository,
	allocations AllocationRepository,
	claims billing.Repository,
	orders procurement.OrderRepository,
	numbers Numberer,
	txManager tx.Manager,
) *AllocationEngine {
	return &AllocationEngine{
		payments:    payments,
		invoices:    invoices,
		allocations: allocations,
		claims:      claims,
		orders:      orders,
		numbers:     numbers,
		txManager:   txManager,
	}
}

// WithAuditor enables change-history recording for settlement operations.
func (e *AllocationEngine) WithAuditor(a ChangeAuditor) *AllocationEngine {
	e.auditor = a
	return e
}

// CreatePayment validates, numbers and stores a payment. Cheques without a
// due date fall back to the payment date.
func (e *AllocationEngine) CreatePayment(ctx context.Context, p *Payment) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if p.Kind == PaymentCheque && p.ChequeDueDate == nil {
		due := p.Date
		p.ChequeDueDate = &due
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p.PaymentNo, err = e.numbers.GetNextNumber(ctx, numerator.DefaultConfig(PaymentNumberPrefix), nil, p.Date)
		if err != nil {
			return fmt.Errorf("payment number: %w", err)
		}
		if err := e.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "payment created",
		"payment_no", p.PaymentNo,
		"supplier_id", p.SupplierID,
		"amount", p.Amount.String(),
		"kind", string(p.Kind),
	)
	return nil
}

// Allocate distributes the payment's unallocated remainder across targets
// in order, oldest debt first. Empty targets means "all open invoices of
// the payment's supplier, oldest first". Returns the advance left over.
func (e *AllocationEngine) Allocate(ctx context.Context, paymentID id.ID, targets []TargetRef) (types.Money, error) {
	var remainder types.Money

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		payment, err := e.payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}

		allocated, err := e.allocations.SumByPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("sum allocations: %w", err)
		}
		remaining := payment.Amount.Sub(allocated)
		if !remaining.IsPositive() {
			remainder = decimal.Zero
			return nil
		}

		if len(targets) == 0 {
			targets, err = e.defaultTargets(ctx, payment)
			if err != nil {
				return err
			}
		}

		for _, target := range targets {
			if !remaining.IsPositive() {
				break
			}

			due, err := e.targetDue(ctx, target)
			if err != nil {
				return err
			}
			if !due.IsPositive() {
				continue
			}

			pay := decimal.Min(remaining, due)
			alloc := &Allocation{
				ID:         id.New(),
				PaymentID:  paymentID,
				TargetKind: target.Kind,
				TargetID:   target.ID,
				Amount:     pay,
				Date:       payment.Date,
				CreatedAt:  time.Now().UTC(),
			}
			if err := e.allocations.Create(ctx, alloc); err != nil {
				return fmt.Errorf("create allocation: %w", err)
			}
			remaining = remaining.Sub(pay)

			if err := e.refreshTargetPaid(ctx, target); err != nil {
				return err
			}

			if e.auditor != nil {
				err := e.auditor.Record(ctx, "payment", paymentID, "allocate", map[string]any{
					"target_kind": string(target.Kind),
					"target_id":   target.ID.String(),
					"amount":      pay.String(),
				})
				if err != nil {
					return fmt.Errorf("audit allocation: %w", err)
				}
			}
		}

		remainder = remaining
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	logger.Info(ctx, "payment allocated",
		"payment_id", paymentID,
		"advance_remainder", remainder.String(),
	)
	return remainder, nil
}

// MatchAdvance re-runs allocation for a payment's current unallocated
// remainder. Safe to call repeatedly.
func (e *AllocationEngine) MatchAdvance(ctx context.Context, paymentID id.ID, targets []TargetRef) (types.Money, error) {
	return e.Allocate(ctx, paymentID, targets)
}

// AdvanceRemainder returns the payment's unallocated balance.
func (e *AllocationEngine) AdvanceRemainder(ctx context.Context, paymentID id.ID) (types.Money, error) {
	payment, err := e.payments.GetByID(ctx, paymentID)
	if err != nil {
		return decimal.Zero, err
	}
	allocated, err := e.allocations.SumByPayment(ctx, paymentID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum allocations: %w", err)
	}
	return payment.Amount.Sub(allocated), nil
}

// GetPayment loads one payment.
func (e *AllocationEngine) GetPayment(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return e.payments.GetByID(ctx, paymentID)
}

// ListPayments lists payments by filter.
func (e *AllocationEngine) ListPayments(ctx context.Context, filter PaymentFilter) ([]*Payment, error) {
	return e.payments.List(ctx, filter)
}

// ListAllocations returns a payment's settlement records.
func (e *AllocationEngine) ListAllocations(ctx context.Context, paymentID id.ID) ([]*Allocation, error) {
	return e.allocations.ListByPayment(ctx, paymentID)
}

// DeletePayment removes a payment and its allocations, then re-derives the
// paid-to-date of every target the allocations touched.
func (e *AllocationEngine) DeletePayment(ctx context.Context, paymentID id.ID) error {
	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.payments.GetByID(ctx, paymentID); err != nil {
			return err
		}

		touched, err := e.allocations.DeleteByPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("delete allocations: %w", err)
		}
		for _, target := range touched {
			if err := e.refreshTargetPaid(ctx, target); err != nil {
				return err
			}
		}

		if err := e.payments.Delete(ctx, paymentID); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}

		logger.Info(ctx, "payment deleted", "payment_id", paymentID, "targets_refreshed", len(touched))
		return nil
	})
}

// defaultTargets builds the FIFO target list: the payment's direct claim
// link first if present, then the supplier's open invoices oldest first.
func (e *AllocationEngine) defaultTargets(ctx context.Context, payment *Payment) ([]TargetRef, error) {
	var targets []TargetRef
	if payment.ClaimID != nil {
		targets = append(targets, TargetRef{Kind: TargetClaim, ID: *payment.ClaimID})
	}

	open, err := e.invoices.OpenBySupplier(ctx, payment.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("open invoices: %w", err)
	}
	for _, inv := range open {
		targets = append(targets, TargetRef{Kind: TargetInvoice, ID: inv.ID})
	}
	return targets, nil
}

// targetDue computes the target's outstanding balance from its gross total
// and the live allocation sum.
func (e *AllocationEngine) targetDue(ctx context.Context, target TargetRef) (types.Money, error) {
	var gross types.Money
	switch target.Kind {
	case TargetInvoice:
		inv, err := e.invoices.GetByID(ctx, target.ID)
		if err != nil {
			return decimal.Zero, err
		}
		gross = inv.GrossTotal
	case TargetClaim:
		claim, err := e.claims.GetByID(ctx, target.ID)
		if err != nil {
			return decimal.Zero, err
		}
		gross = claim.Gross.Add(claim.VATAmount)
	default:
		return decimal.Zero, apperror.NewValidation("invalid allocation target kind").
			WithDetail("value", string(target.Kind))
	}

	allocated, err := e.allocations.SumByTarget(ctx, target.Kind, target.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum target allocations: %w", err)
	}
	return gross.Sub(allocated), nil
}

// refreshTargetPaid recomputes the target's paid-to-date from allocations.
// Claims also roll the sum up into their order's paid-to-date.
func (e *AllocationEngine) refreshTargetPaid(ctx context.Context, target TargetRef) error {
	paid, err := e.allocations.SumByTarget(ctx, target.Kind, target.ID)
	if err != nil {
		return fmt.Errorf("sum target allocations: %w", err)
	}

	switch target.Kind {
	case TargetInvoice:
		if err := e.invoices.UpdatePaidToDate(ctx, target.ID, paid); err != nil {
			return fmt.Errorf("refresh invoice paid: %w", err)
		}
	case TargetClaim:
		if err := e.claims.UpdatePaidToDate(ctx, target.ID, paid); err != nil {
			return fmt.Errorf("refresh claim paid: %w", err)
		}
		if err := e.refreshOrderPaid(ctx, target.ID); err != nil {
			return err
		}
	}
	return nil
}

// refreshOrderPaid re-derives the order's paid-to-date as the allocation
// sum over all of its claims.
func (e *AllocationEngine) refreshOrderPaid(ctx context.Context, claimID id.ID) error {
	claim, err := e.claims.GetByID(ctx, claimID)
	if err != nil {
		return err
	}

	claims, err := e.claims.ListByOrder(ctx, claim.OrderID)
	if err != nil {
		return fmt.Errorf("list order claims: %w", err)
	}

	total := decimal.Zero
	for _, c := range claims {
		paid, err := e.allocations.SumByTarget(ctx, TargetClaim, c.ID)
		if err != nil {
			return fmt.Errorf("sum claim allocations: %w", err)
		}
		total = total.Add(paid)
	}

	if err := e.orders.UpdatePaidToDate(ctx, claim.OrderID, total); err != nil {
		return fmt.Errorf("refresh order paid: %w", err)
	}
	return nil
}
