// Package warehouse provides the Warehouse catalog.
// Kind drives ledger semantics: vendor-virtual warehouses hold goods owned
// by a supplier but not yet received; consumption warehouses swallow stock.
package warehouse

import (
	"context"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
)

// Kind defines the warehouse category.
type Kind string

const (
	// KindPhysical is a regular storage location.
	KindPhysical Kind = "physical"
	// KindSite is an on-site storage area at a construction site.
	KindSite Kind = "site"
	// KindVendorVirtual holds invoiced goods still at the supplier.
	KindVendorVirtual Kind = "vendor_virtual"
	// KindConsumption marks end-use locations; inbound stock counts as used
	// and is excluded from available-balance totals.
	KindConsumption Kind = "consumption"
)

// Warehouse represents a storage location for materials.
type Warehouse struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	Kind Kind `db:"kind" json:"kind"`

	Address *string `db:"address" json:"address,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string, kind Kind) *Warehouse {
	return &Warehouse{
		BaseEntity: entity.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Kind:       kind,
		IsActive:   true,
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !isValidKind(w.Kind) {
		return apperror.NewValidation("invalid warehouse kind").
			WithDetail("field", "kind").
			WithDetail("value", string(w.Kind))
	}
	return nil
}

// CountsAsAvailable reports whether stock in this warehouse contributes to
// available-balance totals.
func (w *Warehouse) CountsAsAvailable() bool {
	return w.Kind != KindConsumption
}

// IsVendorVirtual reports whether this is a supplier-owned virtual location.
func (w *Warehouse) IsVendorVirtual() bool {
	return w.Kind == KindVendorVirtual
}

func isValidKind(k Kind) bool {
	switch k {
	case KindPhysical, KindSite, KindVendorVirtual, KindConsumption:
		return true
	}
	return false
}

// Repository defines lookups for the Warehouse catalog.
type Repository interface {
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	Create(ctx context.Context, w *Warehouse) error
	List(ctx context.Context) ([]*Warehouse, error)

	// FirstVendorVirtual returns the vendor-virtual location used for
	// invoice-driven stock inflows.
	FirstVendorVirtual(ctx context.Context) (*Warehouse, error)
}
