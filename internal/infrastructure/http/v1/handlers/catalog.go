package handlers

import (
	"github.com/gin-gonic/gin"

	"fabrika/internal/domain/catalogs/material"
	"fabrika/internal/domain/catalogs/supplier"
	"fabrika/internal/domain/catalogs/warehouse"
	"fabrika/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves the material, warehouse and supplier catalogs.
type CatalogHandler struct {
	*BaseHandler
	materials  material.Repository
	warehouses warehouse.Repository
	suppliers  supplier.Repository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, materials material.Repository, warehouses warehouse.Repository, suppliers supplier.Repository) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		materials:   materials,
		warehouses:  warehouses,
		suppliers:   suppliers,
	}
}

// CreateMaterial handles POST /catalog/materials.
func (h *CatalogHandler) CreateMaterial(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := m.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.materials.Create(ctx, m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m.ID)
}

// GetMaterial handles GET /catalog/materials/:id.
func (h *CatalogHandler) GetMaterial(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.materials.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// ListMaterials handles GET /catalog/materials.
func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	items, err := h.materials.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// CreateWarehouse handles POST /catalog/warehouses.
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w := req.ToEntity()
	if err := w.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.warehouses.Create(ctx, w); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, w.ID)
}

// GetWarehouse handles GET /catalog/warehouses/:id.
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	w, err := h.warehouses.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// ListWarehouses handles GET /catalog/warehouses.
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	items, err := h.warehouses.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// CreateSupplier handles POST /catalog/suppliers.
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToEntity()
	if err := s.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.suppliers.Create(ctx, s); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s.ID)
}

// GetSupplier handles GET /catalog/suppliers/:id.
func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.suppliers.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// ListSuppliers handles GET /catalog/suppliers.
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	items, err := h.suppliers.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}
