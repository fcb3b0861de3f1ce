package finance_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/finance"
	"fabrika/internal/infrastructure/storage/postgres"
)

const allocationTable = "doc_payment_allocations"

// AllocationRepo implements finance.AllocationRepository.
type AllocationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewAllocationRepo creates a new allocation repository.
func NewAllocationRepo(txManager *postgres.TxManager) *AllocationRepo {
	return &AllocationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[finance.Allocation](),
	}
}

// Create stores a new allocation record.
func (r *AllocationRepo) Create(ctx context.Context, a *finance.Allocation) error {
	q := r.builder.Insert(allocationTable).SetMap(postgres.StructToMap(a))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// ListByPayment returns a payment's allocations, oldest first.
func (r *AllocationRepo) ListByPayment(ctx context.Context, paymentID id.ID) ([]*finance.Allocation, error) {
	q := r.builder.Select(r.columns...).
		From(allocationTable).
		Where(squirrel.Eq{"payment_id": paymentID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var allocations []*finance.Allocation
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &allocations, sql, args...); err != nil {
		return nil, fmt.Errorf("select allocations: %w", err)
	}
	return allocations, nil
}

// SumByPayment returns the total already allocated from a payment.
func (r *AllocationRepo) SumByPayment(ctx context.Context, paymentID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(amount), 0)
		FROM doc_payment_allocations
		WHERE payment_id = $1
	`

	var total decimal.Decimal
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, paymentID).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return decimal.Zero, fmt.Errorf("sum payment allocations: %w", err)
	}
	return total, nil
}

// SumByTarget returns the total allocated to one target.
func (r *AllocationRepo) SumByTarget(ctx context.Context, kind finance.TargetKind, targetID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(amount), 0)
		FROM doc_payment_allocations
		WHERE target_kind = $1 AND target_id = $2
	`

	var total decimal.Decimal
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, kind, targetID).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return decimal.Zero, fmt.Errorf("sum target allocations: %w", err)
	}
	return total, nil
}

// DeleteByPayment removes a payment's allocations and reports the targets
// they pointed at.
func (r *AllocationRepo) DeleteByPayment(ctx context.Context, paymentID id.ID) ([]finance.TargetRef, error) {
	sql := `
		DELETE FROM doc_payment_allocations
		WHERE payment_id = $1
		RETURNING target_kind, target_id
	`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, paymentID)
	if err != nil {
		return nil, fmt.Errorf("delete allocations: %w", err)
	}
	defer rows.Close()

	seen := make(map[id.ID]struct{})
	var targets []finance.TargetRef
	for rows.Next() {
		var t finance.TargetRef
		if err := rows.Scan(&t.Kind, &t.ID); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// Ensure interface compliance.
var _ finance.AllocationRepository = (*AllocationRepo)(nil)
