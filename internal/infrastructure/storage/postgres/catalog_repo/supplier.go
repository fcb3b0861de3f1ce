package catalog_repo

import (
	"fabrika/internal/domain/catalogs/supplier"
	"fabrika/internal/infrastructure/storage/postgres"
)

const supplierTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[supplier.Supplier](txManager, supplierTable, "supplier"),
	}
}

// Ensure interface compliance.
var _ supplier.Repository = (*SupplierRepo)(nil)
