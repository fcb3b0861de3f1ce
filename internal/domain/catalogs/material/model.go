// Package material provides the Material catalog (construction materials
// and subcontracted work items). Reference data only: the settlement core
// never mutates materials once a movement references them.
package material

import (
	"context"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
)

// Unit is the unit of measure for a material.
type Unit string

const (
	UnitPiece       Unit = "piece"
	UnitSquareMeter Unit = "m2"
	UnitCubicMeter  Unit = "m3"
	UnitKilogram    Unit = "kg"
	UnitTon         Unit = "ton"
	UnitMeter       Unit = "m"
	UnitManHour     Unit = "man_hour"
	UnitLumpSum     Unit = "lump_sum"
)

// VATRateExempt is the sentinel VAT rate for exempt items; it computes as 0.
const VATRateExempt = -1

// Material represents a stock-tracked material or a subcontracted work item.
type Material struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	Unit Unit `db:"unit" json:"unit"`

	// DefaultVATRate in percent; VATRateExempt marks VAT-exempt items.
	DefaultVATRate int `db:"default_vat_rate" json:"defaultVatRate"`

	// IsService marks work items (subcontracting) that never hold stock.
	IsService bool `db:"is_service" json:"isService"`
}

// NewMaterial creates a new Material with required fields.
func NewMaterial(code, name string, unit Unit) *Material {
	return &Material{
		BaseEntity:     entity.NewBaseEntity(),
		Code:           code,
		Name:           name,
		Unit:           unit,
		DefaultVATRate: 20,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !isValidUnit(m.Unit) {
		return apperror.NewValidation("invalid unit").
			WithDetail("field", "unit").
			WithDetail("value", string(m.Unit))
	}
	if !isValidVATRate(m.DefaultVATRate) {
		return apperror.NewValidation("invalid VAT rate").
			WithDetail("field", "defaultVatRate").
			WithDetail("value", m.DefaultVATRate)
	}
	return nil
}

// EffectiveVATRate resolves the exempt sentinel to 0.
func (m *Material) EffectiveVATRate() int {
	if m.DefaultVATRate == VATRateExempt {
		return 0
	}
	return m.DefaultVATRate
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitPiece, UnitSquareMeter, UnitCubicMeter, UnitKilogram,
		UnitTon, UnitMeter, UnitManHour, UnitLumpSum:
		return true
	}
	return false
}

func isValidVATRate(r int) bool {
	switch r {
	case VATRateExempt, 0, 5, 10, 16, 20:
		return true
	}
	return false
}

// Repository defines lookups for the Material catalog.
// The settlement core resolves references only; CRUD lives elsewhere.
type Repository interface {
	GetByID(ctx context.Context, materialID id.ID) (*Material, error)
	Create(ctx context.Context, m *Material) error
	List(ctx context.Context) ([]*Material, error)
}
