// Package billing_repo provides the PostgreSQL implementation of the
// progress-claim repository.
package billing_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/billing"
	"fabrika/internal/infrastructure/storage/postgres"
)

const claimTable = "doc_claims"

// ClaimRepo implements billing.Repository.
type ClaimRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewClaimRepo creates a new claim repository.
func NewClaimRepo(txManager *postgres.TxManager) *ClaimRepo {
	return &ClaimRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[billing.ProgressClaim](),
	}
}

// GetByID loads one claim.
func (r *ClaimRepo) GetByID(ctx context.Context, claimID id.ID) (*billing.ProgressClaim, error) {
	q := r.builder.Select(r.columns...).
		From(claimTable).
		Where(squirrel.Eq{"id": claimID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c billing.ProgressClaim
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("claim", claimID)
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return &c, nil
}

// Create stores a new claim.
func (r *ClaimRepo) Create(ctx context.Context, c *billing.ProgressClaim) error {
	q := r.builder.Insert(claimTable).SetMap(postgres.StructToMap(c))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// SumPercent returns the total claimed percentage for an order.
func (r *ClaimRepo) SumPercent(ctx context.Context, orderID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(percentage), 0)
		FROM doc_claims
		WHERE order_id = $1
	`

	var total decimal.Decimal
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, orderID).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return decimal.Zero, fmt.Errorf("sum claimed percent: %w", err)
	}
	return total, nil
}

// ListByOrder returns claims for an order, oldest first.
func (r *ClaimRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]*billing.ProgressClaim, error) {
	q := r.builder.Select(r.columns...).
		From(claimTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var claims []*billing.ProgressClaim
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &claims, sql, args...); err != nil {
		return nil, fmt.Errorf("select claims: %w", err)
	}
	return claims, nil
}

// UpdatePaidToDate overwrites the paid-to-date projection.
func (r *ClaimRepo) UpdatePaidToDate(ctx context.Context, claimID id.ID, paid types.Money) error {
	q := r.builder.Update(claimTable).
		Set("paid_to_date", paid).
		Where(squirrel.Eq{"id": claimID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update paid to date: %w", err)
	}
	return nil
}

// Ensure interface compliance.
var _ billing.Repository = (*ClaimRepo)(nil)
