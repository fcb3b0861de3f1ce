package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/finance"
)

// CreateInvoiceRequest registers a supplier invoice with lines.
type CreateInvoiceRequest struct {
	SupplierID string               `json:"supplierId" binding:"required"`
	OrderID    *string              `json:"orderId,omitempty"`
	Date       *time.Time           `json:"date,omitempty"`
	Note       string               `json:"note,omitempty"`
	Lines      []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// InvoiceLineRequest is one invoice line.
type InvoiceLineRequest struct {
	MaterialID string          `json:"materialId" binding:"required"`
	OrderID    *string         `json:"orderId,omitempty"`
	Quantity   types.Quantity  `json:"quantity" binding:"required"`
	UnitPrice  decimal.Decimal `json:"unitPrice" binding:"required"`
	VATRate    int             `json:"vatRate,omitempty"`
	IsService  bool            `json:"isService,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateInvoiceRequest) ToEntity() (*finance.Invoice, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id")
	}

	inv := finance.NewInvoice(supplierID)
	if r.OrderID != nil {
		orderID, err := id.Parse(*r.OrderID)
		if err != nil {
			return nil, apperror.NewValidation("invalid order id")
		}
		inv.OrderID = &orderID
	}
	if r.Date != nil {
		inv.Date = *r.Date
	}
	inv.Note = r.Note

	for _, lr := range r.Lines {
		materialID, err := id.Parse(lr.MaterialID)
		if err != nil {
			return nil, apperror.NewValidation("invalid material id")
		}

		line := finance.InvoiceLine{
			MaterialID: materialID,
			Quantity:   lr.Quantity,
			UnitPrice:  lr.UnitPrice,
			VATRate:    lr.VATRate,
			IsService:  lr.IsService,
		}
		if lr.OrderID != nil {
			orderID, err := id.Parse(*lr.OrderID)
			if err != nil {
				return nil, apperror.NewValidation("invalid line order id")
			}
			line.OrderID = &orderID
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, nil
}

// CreatePaymentRequest registers an outgoing payment.
type CreatePaymentRequest struct {
	SupplierID    string          `json:"supplierId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Date          *time.Time      `json:"date,omitempty"`
	Kind          string          `json:"kind" binding:"required"`
	ChequeDueDate *time.Time      `json:"chequeDueDate,omitempty"`
	ClaimID       *string         `json:"claimId,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreatePaymentRequest) ToEntity() (*finance.Payment, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id")
	}

	p := finance.NewPayment(supplierID, r.Amount, finance.PaymentKind(r.Kind))
	if r.Date != nil {
		p.Date = *r.Date
	}
	p.ChequeDueDate = r.ChequeDueDate
	if r.ClaimID != nil {
		claimID, err := id.Parse(*r.ClaimID)
		if err != nil {
			return nil, apperror.NewValidation("invalid claim id")
		}
		p.ClaimID = &claimID
	}
	p.Note = r.Note
	return p, nil
}

// AllocateRequest settles a payment against explicit targets. Empty
// targets settle open documents oldest first.
type AllocateRequest struct {
	Targets []AllocateTarget `json:"targets,omitempty"`
}

// AllocateTarget names one settlement target.
type AllocateTarget struct {
	Kind string `json:"kind" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

// ToTargets converts the DTO targets into domain references.
func (r *AllocateRequest) ToTargets() ([]finance.TargetRef, error) {
	targets := make([]finance.TargetRef, 0, len(r.Targets))
	for _, t := range r.Targets {
		targetID, err := id.Parse(t.ID)
		if err != nil {
			return nil, apperror.NewValidation("invalid target id")
		}
		targets = append(targets, finance.TargetRef{
			Kind: finance.TargetKind(t.Kind),
			ID:   targetID,
		})
	}
	return targets, nil
}

// AllocationResultResponse reports how a settlement run ended.
type AllocationResultResponse struct {
	Allocated decimal.Decimal `json:"allocated"`
	Advance   decimal.Decimal `json:"advance"`
}
