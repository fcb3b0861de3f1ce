// Package transfer posts balanced dual-leg stock transfers.
// A transfer is the only door through which stock changes location:
// one Out leg at the source, one In leg at the destination, written
// atomically and deduplicated by the document reference key.
package transfer

import (
	"context"
	"fmt"
	"time"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/tx"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/catalogs/warehouse"
	"fabrika/internal/domain/ledger"
	"fabrika/pkg/logger"
)

// Matcher binds a floating vendor-virtual depletion to an open order.
// Implemented by procurement.FifoMatcher; called best-effort after the
// transfer commits, never inside its transaction.
type Matcher interface {
	MatchAndBind(ctx context.Context, out ledger.Movement) (*id.ID, error)
}

// Request describes one transfer.
type Request struct {
	MaterialID        id.ID
	Quantity          types.Quantity
	SourceWarehouseID id.ID
	DestWarehouseID   id.ID

	// OrderID binds both legs to a purchase order up front. When nil and
	// the source is vendor-virtual, the FIFO matcher runs after commit.
	OrderID *id.ID

	Note string
	Date time.Time

	// RefKind/RefID form the idempotency key. Zero RefID means an
	// unconditional one-off posting (manual corrections).
	RefKind ledger.RefKind
	RefID   id.ID
}

// Result reports what the transfer wrote. On a replay the line
// identifiers are those of the stored legs, not of the discarded attempt.
type Result struct {
	OutLineID id.ID
	InLineID  id.ID

	// Replayed is true when both legs already existed for the reference
	// key and nothing was written.
	Replayed bool

	// MatchedOrderID is set when the FIFO matcher bound the transfer.
	MatchedOrderID *id.ID
}

// Service posts transfers on top of the stock ledger.
type Service struct {
	ledger     *ledger.Service
	warehouses warehouse.Repository
	txManager  tx.Manager
	matcher    Matcher
}

// NewService creates a transfer service. The matcher is optional.
func NewService(ledgerSvc *ledger.Service, warehouses warehouse.Repository, txManager tx.Manager, matcher Matcher) *Service {
	return &Service{
		ledger:     ledgerSvc,
		warehouses: warehouses,
		txManager:  txManager,
		matcher:    matcher,
	}
}

// Transfer writes both legs in one transaction. Fails with
// InsufficientStock when the source balance cannot cover the quantity;
// in that case nothing is written.
func (s *Service) Transfer(ctx context.Context, req Request) (Result, error) {
	if err := s.validate(ctx, req); err != nil {
		return Result{}, err
	}

	source, err := s.warehouses.GetByID(ctx, req.SourceWarehouseID)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.warehouses.GetByID(ctx, req.DestWarehouseID); err != nil {
		return Result{}, err
	}

	out := ledger.NewMovement(req.MaterialID, req.SourceWarehouseID, req.Quantity, ledger.DirectionOut, req.Date)
	in := ledger.NewMovement(req.MaterialID, req.DestWarehouseID, req.Quantity, ledger.DirectionIn, req.Date)
	out.Note = "OUT: " + req.Note
	in.Note = "IN: " + req.Note
	if req.OrderID != nil {
		out = out.WithOrder(*req.OrderID)
		in = in.WithOrder(*req.OrderID)
	}

	useRef := !id.IsNil(req.RefID)
	if useRef {
		out = out.WithRef(ledger.Ref{Kind: req.RefKind, ID: req.RefID, Direction: ledger.RefOut})
		in = in.WithRef(ledger.Ref{Kind: req.RefKind, ID: req.RefID, Direction: ledger.RefIn})
	}

	result := Result{OutLineID: out.LineID, InLineID: in.LineID}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Replay detection comes before the balance check: a retry of a
		// transfer that drained its source must still be a clean no-op.
		if useRef {
			existing, err := s.ledger.ListByRef(ctx, req.RefKind, req.RefID)
			if err != nil {
				return fmt.Errorf("list by ref: %w", err)
			}
			if storedOut, storedIn := findLegs(existing, req); storedOut != nil && storedIn != nil {
				result = Result{
					OutLineID: storedOut.LineID,
					InLineID:  storedIn.LineID,
					Replayed:  true,
				}
				return nil
			}
		}

		balance, err := s.ledger.Balance(ctx, req.MaterialID, req.SourceWarehouseID)
		if err != nil {
			return fmt.Errorf("source balance: %w", err)
		}
		if req.Quantity > balance {
			return apperror.NewInsufficientStock(
				req.MaterialID.String(),
				req.SourceWarehouseID.String(),
				req.Quantity.String(),
				balance.String(),
			)
		}

		if !useRef {
			return s.ledger.Post(ctx, []ledger.Movement{out, in})
		}

		outInserted, err := s.ledger.PostIfAbsent(ctx, out)
		if err != nil {
			return fmt.Errorf("out leg: %w", err)
		}
		inInserted, err := s.ledger.PostIfAbsent(ctx, in)
		if err != nil {
			return fmt.Errorf("in leg: %w", err)
		}
		result.Replayed = !outInserted && !inInserted
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.Replayed {
		logger.Info(ctx, "transfer replay ignored",
			"ref_kind", string(req.RefKind), "ref_id", req.RefID)
		return result, nil
	}

	logger.Info(ctx, "transfer posted",
		"material_id", req.MaterialID,
		"source_id", req.SourceWarehouseID,
		"dest_id", req.DestWarehouseID,
		"quantity", req.Quantity.String(),
	)

	// FIFO matching runs outside the transfer transaction: best-effort,
	// a failure here leaves a floating movement, never a failed transfer.
	if s.matcher != nil && req.OrderID == nil && source.IsVendorVirtual() {
		matched, err := s.matcher.MatchAndBind(ctx, out)
		if err != nil {
			logger.Error(ctx, "fifo match failed", "line_id", out.LineID, "error", err)
		} else {
			result.MatchedOrderID = matched
		}
	}

	return result, nil
}

// findLegs picks the stored Out and In legs of the reference key. Both
// present means the transfer was already posted in full.
func findLegs(movements []ledger.Movement, req Request) (*ledger.Movement, *ledger.Movement) {
	var outLeg, inLeg *ledger.Movement
	for i := range movements {
		m := &movements[i]
		if m.RefDirection == nil || m.MaterialID != req.MaterialID {
			continue
		}
		switch {
		case *m.RefDirection == ledger.RefOut && m.WarehouseID == req.SourceWarehouseID:
			outLeg = m
		case *m.RefDirection == ledger.RefIn && m.WarehouseID == req.DestWarehouseID:
			inLeg = m
		}
	}
	return outLeg, inLeg
}

func (s *Service) validate(ctx context.Context, req Request) error {
	if id.IsNil(req.MaterialID) {
		return apperror.NewValidation("material is required").
			WithDetail("field", "materialId")
	}
	if id.IsNil(req.SourceWarehouseID) || id.IsNil(req.DestWarehouseID) {
		return apperror.NewValidation("source and destination warehouses are required")
	}
	if req.SourceWarehouseID == req.DestWarehouseID {
		return apperror.NewValidation("source and destination must differ")
	}
	if !req.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", req.Quantity.String())
	}
	if req.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if !id.IsNil(req.RefID) {
		switch req.RefKind {
		case ledger.RefKindTransfer, ledger.RefKindInvoiceLine, ledger.RefKindManual, ledger.RefKindReturn:
		default:
			return apperror.NewValidation("invalid reference kind").
				WithDetail("field", "refKind").
				WithDetail("value", string(req.RefKind))
		}
	}
	return nil
}
