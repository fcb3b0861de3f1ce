package finance_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/domain/finance"
	"fabrika/internal/infrastructure/storage/postgres"
)

const paymentTable = "doc_payments"

// PaymentRepo implements finance.PaymentRepository.
type PaymentRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[finance.Payment](),
	}
}

// GetByID loads one payment.
func (r *PaymentRepo) GetByID(ctx context.Context, paymentID id.ID) (*finance.Payment, error) {
	q := r.builder.Select(r.columns...).
		From(paymentTable).
		Where(squirrel.Eq{"id": paymentID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p finance.Payment
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment", paymentID)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// Create stores a new payment.
func (r *PaymentRepo) Create(ctx context.Context, p *finance.Payment) error {
	q := r.builder.Insert(paymentTable).SetMap(postgres.StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// Delete removes a payment.
func (r *PaymentRepo) Delete(ctx context.Context, paymentID id.ID) error {
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, "DELETE FROM doc_payments WHERE id = $1", paymentID); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// List returns payments by filter, newest first.
func (r *PaymentRepo) List(ctx context.Context, filter finance.PaymentFilter) ([]*finance.Payment, error) {
	q := r.builder.Select(r.columns...).From(paymentTable)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}

	q = q.OrderBy("date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []*finance.Payment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return payments, nil
}

// Ensure interface compliance.
var _ finance.PaymentRepository = (*PaymentRepo)(nil)
