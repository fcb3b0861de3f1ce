// Package ledger provides the stock ledger service.
package ledger

import (
	"context"
	"fmt"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/pkg/logger"
)

// Service provides posting and balance projections over the ledger.
// Transactions are managed by the caller; every write here runs inside
// the caller's transaction scope.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Post validates and appends movements. Validation failures reject the
// whole batch; no partial append.
func (s *Service) Post(ctx context.Context, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}

	for i := range movements {
		if err := movements[i].Validate(ctx); err != nil {
			return fmt.Errorf("movement %d: %w", i, err)
		}
	}

	if err := s.repo.Insert(ctx, movements); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	logger.Info(ctx, "posted stock movements", "count", len(movements))
	return nil
}

// PostIfAbsent appends one movement under its idempotency key.
// Returns false when an identical reference leg already exists.
func (s *Service) PostIfAbsent(ctx context.Context, m Movement) (bool, error) {
	if err := m.Validate(ctx); err != nil {
		return false, err
	}
	if !m.HasRef() {
		return false, fmt.Errorf("movement has no idempotency reference")
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, m)
	if err != nil {
		return false, fmt.Errorf("insert movement: %w", err)
	}
	return inserted, nil
}

// DeleteByRef reverses all movements written under a document reference.
// Reserved for document reversal; regular flows never delete entries.
func (s *Service) DeleteByRef(ctx context.Context, kind RefKind, refID id.ID) error {
	if err := s.repo.DeleteByRef(ctx, kind, refID); err != nil {
		return fmt.Errorf("delete by ref: %w", err)
	}
	logger.Info(ctx, "reversed movements by reference", "ref_kind", string(kind), "ref_id", refID)
	return nil
}

// ListByRef returns the movements written under a document reference.
func (s *Service) ListByRef(ctx context.Context, kind RefKind, refID id.ID) ([]Movement, error) {
	return s.repo.ListByRef(ctx, kind, refID)
}

// GetByLineID returns a single movement by its line identifier.
func (s *Service) GetByLineID(ctx context.Context, lineID id.ID) (*Movement, error) {
	return s.repo.GetByLineID(ctx, lineID)
}

// Balance returns the current balance for one material+warehouse pair.
func (s *Service) Balance(ctx context.Context, materialID, warehouseID id.ID) (types.Quantity, error) {
	return s.repo.Balance(ctx, materialID, warehouseID)
}

// AvailableBalance returns material stock across non-consumption warehouses.
func (s *Service) AvailableBalance(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	return s.repo.AvailableBalance(ctx, materialID)
}

// PendingInVendor returns goods invoiced into vendor-virtual locations for
// an order and not yet shipped out. Drives FIFO matching.
func (s *Service) PendingInVendor(ctx context.Context, orderID id.ID) (types.Quantity, error) {
	return s.repo.PendingInVendor(ctx, orderID)
}

// BindOrder idempotently links a floating movement to an order.
func (s *Service) BindOrder(ctx context.Context, lineID, orderID id.ID) (bool, error) {
	bound, err := s.repo.BindOrder(ctx, lineID, orderID)
	if err != nil {
		return false, fmt.Errorf("bind order: %w", err)
	}
	if bound {
		logger.Info(ctx, "movement bound to order", "line_id", lineID, "order_id", orderID)
	}
	return bound, nil
}

// History returns movement history for a material.
func (s *Service) History(ctx context.Context, materialID id.ID, filter HistoryFilter) ([]Movement, error) {
	return s.repo.History(ctx, materialID, filter)
}
