package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
	"fabrika/internal/core/tx"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/procurement"
	"fabrika/pkg/logger"
	"fabrika/pkg/numerator"
)

// ClaimNumberPrefix prefixes generated claim numbers (CLM-2026-00001).
const ClaimNumberPrefix = "CLM"

// Numberer generates document numbers. Satisfied by numerator.Service.
type Numberer interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error)
}

// CreateClaimRequest describes one progress claim.
type CreateClaimRequest struct {
	OrderID    id.ID
	Percentage types.Money
	Date       time.Time

	StopajRate  int
	TeminatRate int

	AdvanceDeduction types.Money
	OtherDeductions  types.Money

	Note string
}

// Engine creates progress claims under the cumulative 100% cap.
//
// Concurrent claims against the same order serialize on the order row lock;
// the cap check and the insert commit as one unit or not at all.
type Engine struct {
	claims    Repository
	orders    procurement.OrderRepository
	quotes    procurement.QuoteRepository
	numbers   Numberer
	txManager tx.Manager
}

// NewEngine creates a progress billing engine.
func NewEngine(claims Repository, orders procurement.OrderRepository, quotes procurement.QuoteRepository, numbers Numberer, txManager tx.Manager) *Engine {
	return &Engine{
		claims:    claims,
		orders:    orders,
		quotes:    quotes,
		numbers:   numbers,
		txManager: txManager,
	}
}

var hundred = decimal.NewFromInt(100)

// CreateClaim validates the percentage cap and persists a claim with all
// derived amounts. Amounts come from the quote's locked contract snapshot;
// a live rate is never consulted here.
func (e *Engine) CreateClaim(ctx context.Context, req CreateClaimRequest) (*ProgressClaim, error) {
	claim := &ProgressClaim{
		BaseDocument:     entity.NewBaseDocument(),
		OrderID:          req.OrderID,
		Date:             req.Date,
		Percentage:       req.Percentage,
		StopajRate:       req.StopajRate,
		TeminatRate:      req.TeminatRate,
		AdvanceDeduction: req.AdvanceDeduction,
		OtherDeductions:  req.OtherDeductions,
		Note:             req.Note,
	}
	if err := claim.Validate(ctx); err != nil {
		return nil, err
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Row lock serializes concurrent claims for this order.
		order, err := e.orders.GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}

		priorTotal, err := e.claims.SumPercent(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("sum claimed percent: %w", err)
		}
		if priorTotal.Add(req.Percentage).GreaterThan(hundred) {
			return overCap(order.ID, priorTotal)
		}

		quote, err := e.quotes.GetByID(ctx, order.QuoteID)
		if err != nil {
			return err
		}
		if !quote.IsLocked() {
			return apperror.NewMissingContractSnapshot(order.ID.String())
		}

		contractNet := contractNetTotal(quote, order)

		claim.Gross = types.RoundMoney(contractNet.Mul(types.Percent(req.Percentage)))
		claim.VATRate = quote.EffectiveVATRate()
		claim.VATAmount = types.RoundMoney(claim.Gross.Mul(percentOfInt(claim.VATRate)))
		claim.StopajAmount = types.RoundMoney(claim.Gross.Mul(percentOfInt(req.StopajRate)))
		claim.TeminatAmount = types.RoundMoney(claim.Gross.Mul(percentOfInt(req.TeminatRate)))

		claim.NetPayable = claim.Gross.Add(claim.VATAmount).
			Sub(claim.StopajAmount).
			Sub(claim.TeminatAmount).
			Sub(req.AdvanceDeduction).
			Sub(req.OtherDeductions)
		claim.Approved = true

		claim.ClaimNo, err = e.numbers.GetNextNumber(ctx, numerator.DefaultConfig(ClaimNumberPrefix), nil, req.Date)
		if err != nil {
			return fmt.Errorf("claim number: %w", err)
		}

		if err := e.claims.Create(ctx, claim); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}

		// Re-check after the insert to catch anything that slipped past
		// the row lock; a violation rolls the whole claim back.
		total, err := e.claims.SumPercent(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("revalidate claimed percent: %w", err)
		}
		if total.GreaterThan(hundred) {
			return overCap(order.ID, total.Sub(req.Percentage))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "progress claim created",
		"claim_no", claim.ClaimNo,
		"order_id", claim.OrderID,
		"percentage", claim.Percentage.String(),
		"net_payable", claim.NetPayable.String(),
	)
	return claim, nil
}

// GetClaim loads one claim.
func (e *Engine) GetClaim(ctx context.Context, claimID id.ID) (*ProgressClaim, error) {
	return e.claims.GetByID(ctx, claimID)
}

// ListClaims returns all claims for an order, oldest first.
func (e *Engine) ListClaims(ctx context.Context, orderID id.ID) ([]*ProgressClaim, error) {
	return e.claims.ListByOrder(ctx, orderID)
}

// RemainingPercent returns the claimable headroom for an order.
func (e *Engine) RemainingPercent(ctx context.Context, orderID id.ID) (types.Money, error) {
	prior, err := e.claims.SumPercent(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return headroom(prior), nil
}

// contractNetTotal derives the locked local-currency contract total. The
// net unit price is back-computed once from the locked totals, so partial
// orders still price against the snapshot.
func contractNetTotal(quote *procurement.Quote, order *procurement.PurchaseOrder) types.Money {
	if quote.Quantity.IsZero() || quote.Quantity == order.OrderedQty {
		return quote.LockedNet
	}
	netUnit := quote.LockedNet.Div(quote.Quantity.Decimal())
	return netUnit.Mul(order.OrderedQty.Decimal())
}

func percentOfInt(p int) types.Money {
	return types.Percent(decimal.NewFromInt(int64(p)))
}

func headroom(prior types.Money) types.Money {
	remaining := hundred.Sub(prior)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func overCap(orderID id.ID, prior types.Money) error {
	return apperror.NewOverCapPercentage(orderID.String(), types.RoundMoney(headroom(prior)).String())
}
