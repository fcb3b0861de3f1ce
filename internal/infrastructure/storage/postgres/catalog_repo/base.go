// Package catalog_repo provides PostgreSQL implementations for the catalog
// repositories (materials, warehouses, suppliers).
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo implements the shared lookup operations for catalogs.
// Columns come from the entity's db tags at construction time.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	table      string
	entityName string
	columns    []string
	builder    squirrel.StatementBuilderType
}

// NewBaseCatalogRepo creates a catalog repository base.
func NewBaseCatalogRepo[T any](txManager *postgres.TxManager, table, entityName string) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		table:      table,
		entityName: entityName,
		columns:    postgres.ExtractDBColumns[T](),
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Builder exposes the statement builder for entity-specific queries.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return r.builder
}

// Querier resolves the transaction-aware querier.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// GetByID loads one catalog entry.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (*T, error) {
	q := r.builder.Select(r.columns...).
		From(r.table).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e T
	if err := pgxscan.Get(ctx, r.Querier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, entityID)
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return &e, nil
}

// Create stores a new catalog entry.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, e *T) error {
	q := r.builder.Insert(r.table).SetMap(postgres.StructToMap(e))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.entityName, err)
	}
	return nil
}

// List returns all catalog entries ordered by code.
func (r *BaseCatalogRepo[T]) List(ctx context.Context) ([]*T, error) {
	q := r.builder.Select(r.columns...).
		From(r.table).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*T
	if err := pgxscan.Select(ctx, r.Querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entityName, err)
	}
	return entries, nil
}
