// Package procurement_repo provides PostgreSQL implementations for the
// quote and purchase-order repositories.
package procurement_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/domain/procurement"
	"fabrika/internal/infrastructure/storage/postgres"
)

const quoteTable = "doc_quotes"

// QuoteRepo implements procurement.QuoteRepository.
type QuoteRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewQuoteRepo creates a new quote repository.
func NewQuoteRepo(txManager *postgres.TxManager) *QuoteRepo {
	return &QuoteRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[procurement.Quote](),
	}
}

// GetByID loads one quote.
func (r *QuoteRepo) GetByID(ctx context.Context, quoteID id.ID) (*procurement.Quote, error) {
	return r.get(ctx, quoteID, false)
}

// GetForUpdate loads a quote with a row lock. Must run inside a transaction.
func (r *QuoteRepo) GetForUpdate(ctx context.Context, quoteID id.ID) (*procurement.Quote, error) {
	return r.get(ctx, quoteID, true)
}

func (r *QuoteRepo) get(ctx context.Context, quoteID id.ID, forUpdate bool) (*procurement.Quote, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1",
		strings.Join(r.columns, ", "), quoteTable,
	)
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var q procurement.Quote
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &q, sql, quoteID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("quote", quoteID)
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return &q, nil
}

// Create stores a new quote.
func (r *QuoteRepo) Create(ctx context.Context, q *procurement.Quote) error {
	query := r.builder.Insert(quoteTable).SetMap(postgres.StructToMap(q))

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// Update persists all mutable fields with an optimistic version check.
// The entity version must already be incremented via Touch.
func (r *QuoteRepo) Update(ctx context.Context, q *procurement.Quote) error {
	values := postgres.StructToMap(q)
	delete(values, "id")

	query := r.builder.Update(quoteTable).
		SetMap(values).
		Where(squirrel.Eq{"id": q.ID}).
		Where(squirrel.Eq{"version": q.Version - 1})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("quote", q.ID)
	}
	return nil
}

// List returns quotes by filter, newest first.
func (r *QuoteRepo) List(ctx context.Context, filter procurement.QuoteFilter) ([]*procurement.Quote, error) {
	q := r.builder.Select(r.columns...).From(quoteTable)

	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	q = q.OrderBy("created_at DESC")

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

	var quotes []*procurement.Quote
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &quotes, sql, args...); err != nil {
		return nil, fmt.Errorf("select quotes: %w", err)
	}
	return quotes, nil
}

// Ensure interface compliance.
var _ procurement.QuoteRepository = (*QuoteRepo)(nil)
