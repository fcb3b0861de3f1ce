package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabrika/internal/core/apperror"
	"fabrika/internal/domain/catalogs/warehouse"
	"fabrika/internal/infrastructure/storage/postgres"
)

const warehouseTable = "cat_warehouses"

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[warehouse.Warehouse](txManager, warehouseTable, "warehouse"),
	}
}

// FirstVendorVirtual returns the active vendor-virtual location with the
// lowest code. Invoice-driven inflows land here.
func (r *WarehouseRepo) FirstVendorVirtual(ctx context.Context) (*warehouse.Warehouse, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[warehouse.Warehouse]()...).
		From(warehouseTable).
		Where(squirrel.Eq{"kind": warehouse.KindVendorVirtual, "is_active": true}).
		OrderBy("code").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.Querier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("vendor-virtual warehouse", nil)
		}
		return nil, fmt.Errorf("get vendor-virtual warehouse: %w", err)
	}
	return &w, nil
}

// Ensure interface compliance.
var _ warehouse.Repository = (*WarehouseRepo)(nil)
