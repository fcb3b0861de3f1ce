package catalog_repo

import (
	"fabrika/internal/domain/catalogs/material"
	"fabrika/internal/infrastructure/storage/postgres"
)

const materialTable = "cat_materials"

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	*BaseCatalogRepo[material.Material]
}

// NewMaterialRepo creates a new material repository.
func NewMaterialRepo(txManager *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[material.Material](txManager, materialTable, "material"),
	}
}

// Ensure interface compliance.
var _ material.Repository = (*MaterialRepo)(nil)
