// Package supplier provides the Supplier catalog.
package supplier

import (
	"context"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
)

// Supplier represents a vendor or subcontractor the company buys from.
type Supplier struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
}

// NewSupplier creates a new Supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		BaseEntity: entity.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Repository defines lookups for the Supplier catalog.
type Repository interface {
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	Create(ctx context.Context, s *Supplier) error
	List(ctx context.Context) ([]*Supplier, error)
}
