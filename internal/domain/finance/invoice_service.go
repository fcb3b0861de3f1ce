package finance

import (
	"context"
	"fmt"
	"time"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/tx"
	"fabrika/internal/domain/catalogs/warehouse"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/procurement"
	"fabrika/pkg/logger"
	"fabrika/pkg/numerator"
)

// InvoiceNumberPrefix prefixes generated invoice numbers.
const InvoiceNumberPrefix = "INV"

// Numberer generates document numbers. Satisfied by numerator.Service.
type Numberer interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error)
}

// InvoiceService creates and deletes invoices together with their stock
// side effects. Creating an invoice posts material lines into the
// vendor-virtual location keyed by the line id, so a replay cannot double
// the stock; deleting reverses those movements by the same key.
type InvoiceService struct {
	invoices    InvoiceRepository
	allocations AllocationRepository
	ledger      *ledger.Service
	warehouses  warehouse.Repository
	procurement *procurement.Service
	numbers     Numberer
	txManager   tx.Manager
}

// NewInvoiceService creates an invoice service.
func NewInvoiceService(
	invoices InvoiceRepository,
	allocations AllocationRepository,
	ledgerSvc *ledger.Service,
	warehouses warehouse.Repository,
	procurementSvc *procurement.Service,
	numbers Numberer,
	txManager tx.Manager,
) *InvoiceService {
	return &InvoiceService{
		invoices:    invoices,
		allocations: allocations,
		ledger:      ledgerSvc,
		warehouses:  warehouses,
		procurement: procurementSvc,
		numbers:     numbers,
		txManager:   txManager,
	}
}

// Create validates, numbers and stores the invoice, posting one In movement
// into the vendor-virtual location per material line.
func (s *InvoiceService) Create(ctx context.Context, inv *Invoice) error {
	for i := range inv.Lines {
		inv.Lines[i].RecalcAmounts()
		if id.IsNil(inv.Lines[i].LineID) {
			inv.Lines[i].LineID = id.New()
		}
		inv.Lines[i].InvoiceID = inv.ID
	}
	inv.RecalcTotals()

	if err := inv.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv.InvoiceNo, err = s.numbers.GetNextNumber(ctx, numerator.DefaultConfig(InvoiceNumberPrefix), nil, inv.Date)
		if err != nil {
			return fmt.Errorf("invoice number: %w", err)
		}

		if err := s.invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		for i := range inv.Lines {
			if err := s.postLine(ctx, inv, &inv.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice created",
		"invoice_no", inv.InvoiceNo,
		"supplier_id", inv.SupplierID,
		"gross_total", inv.GrossTotal.String(),
	)
	return nil
}

// postLine posts a material line into the vendor-virtual location and
// accrues the invoiced quantity on the linked order.
func (s *InvoiceService) postLine(ctx context.Context, inv *Invoice, line *InvoiceLine) error {
	if line.IsService {
		return nil
	}

	vendor, err := s.warehouses.FirstVendorVirtual(ctx)
	if err != nil {
		return fmt.Errorf("vendor-virtual warehouse: %w", err)
	}

	m := ledger.NewMovement(line.MaterialID, vendor.ID, line.Quantity, ledger.DirectionIn, inv.Date).
		WithRef(ledger.Ref{Kind: ledger.RefKindInvoiceLine, ID: line.LineID, Direction: ledger.RefIn})
	m.SupplierID = &inv.SupplierID
	m.Note = "invoice " + inv.InvoiceNo
	if line.OrderID != nil {
		m = m.WithOrder(*line.OrderID)
	}

	if _, err := s.ledger.PostIfAbsent(ctx, m); err != nil {
		return fmt.Errorf("post invoice line %s: %w", line.LineID, err)
	}

	if line.OrderID != nil {
		if err := s.procurement.RegisterInvoiced(ctx, *line.OrderID, line.Quantity); err != nil {
			return fmt.Errorf("accrue invoiced quantity: %w", err)
		}
	}
	return nil
}

// Get loads an invoice with lines.
func (s *InvoiceService) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, invoiceID)
}

// List lists invoices by filter.
func (s *InvoiceService) List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error) {
	return s.invoices.List(ctx, filter)
}

// Delete removes an invoice, reversing its stock movements by reference
// key and returning the invoiced quantity to the linked orders. Invoices
// with settlements must have their payments deleted first.
func (s *InvoiceService) Delete(ctx context.Context, invoiceID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		allocated, err := s.allocations.SumByTarget(ctx, TargetInvoice, invoiceID)
		if err != nil {
			return fmt.Errorf("check settlements: %w", err)
		}
		if allocated.IsPositive() {
			return apperror.NewConflict("invoice has settlements; delete the payments first").
				WithDetail("invoice_id", invoiceID.String()).
				WithDetail("allocated", allocated.String())
		}

		for i := range inv.Lines {
			line := &inv.Lines[i]
			if line.IsService {
				continue
			}
			if err := s.ledger.DeleteByRef(ctx, ledger.RefKindInvoiceLine, line.LineID); err != nil {
				return fmt.Errorf("reverse invoice line %s: %w", line.LineID, err)
			}
			if line.OrderID != nil {
				if err := s.procurement.RegisterInvoiced(ctx, *line.OrderID, line.Quantity.Neg()); err != nil {
					return fmt.Errorf("reverse invoiced quantity: %w", err)
				}
			}
		}

		if err := s.invoices.Delete(ctx, invoiceID); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}

		logger.Info(ctx, "invoice deleted", "invoice_no", inv.InvoiceNo, "invoice_id", invoiceID)
		return nil
	})
}
