package dto

import (
	"fabrika/internal/domain/catalogs/material"
	"fabrika/internal/domain/catalogs/supplier"
	"fabrika/internal/domain/catalogs/warehouse"
)

// CreateMaterialRequest creates a material or work item.
type CreateMaterialRequest struct {
	Code           string `json:"code" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Unit           string `json:"unit" binding:"required"`
	DefaultVATRate *int   `json:"defaultVatRate,omitempty"`
	IsService      bool   `json:"isService,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateMaterialRequest) ToEntity() *material.Material {
	m := material.NewMaterial(r.Code, r.Name, material.Unit(r.Unit))
	if r.DefaultVATRate != nil {
		m.DefaultVATRate = *r.DefaultVATRate
	}
	m.IsService = r.IsService
	return m
}

// CreateWarehouseRequest creates a storage location.
type CreateWarehouseRequest struct {
	Code    string  `json:"code" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Kind    string  `json:"kind" binding:"required"`
	Address *string `json:"address,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	w := warehouse.NewWarehouse(r.Code, r.Name, warehouse.Kind(r.Kind))
	w.Address = r.Address
	return w
}

// CreateSupplierRequest creates a vendor or subcontractor.
type CreateSupplierRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contactPerson,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.ContactPerson = r.ContactPerson
	s.Phone = r.Phone
	s.Address = r.Address
	return s
}
