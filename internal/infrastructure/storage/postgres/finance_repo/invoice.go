// Package finance_repo provides PostgreSQL implementations for the invoice,
// payment and allocation repositories.
package finance_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/finance"
	"fabrika/internal/infrastructure/storage/postgres"
)

const (
	invoiceTable     = "doc_invoices"
	invoiceLineTable = "doc_invoice_lines"
)

// InvoiceRepo implements finance.InvoiceRepository.
type InvoiceRepo struct {
	txManager   *postgres.TxManager
	builder     squirrel.StatementBuilderType
	columns     []string
	lineColumns []string
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txManager:   txManager,
		builder:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:     postgres.ExtractDBColumns[finance.Invoice](),
		lineColumns: postgres.ExtractDBColumns[finance.InvoiceLine](),
	}
}

// GetByID loads an invoice with its lines.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*finance.Invoice, error) {
	q := r.builder.Select(r.columns...).
		From(invoiceTable).
		Where(squirrel.Eq{"id": invoiceID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv finance.Invoice
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", invoiceID)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	lines, err := r.getLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return &inv, nil
}

func (r *InvoiceRepo) getLines(ctx context.Context, invoiceID id.ID) ([]finance.InvoiceLine, error) {
	q := r.builder.Select(r.lineColumns...).
		From(invoiceLineTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []finance.InvoiceLine
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select invoice lines: %w", err)
	}
	return lines, nil
}

// Create stores the invoice and all lines.
func (r *InvoiceRepo) Create(ctx context.Context, inv *finance.Invoice) error {
	q := r.builder.Insert(invoiceTable).SetMap(postgres.StructToMap(inv))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	if len(inv.Lines) == 0 {
		return nil
	}

	lq := r.builder.Insert(invoiceLineTable).Columns(r.lineColumns...)
	for i := range inv.Lines {
		values := postgres.StructToMap(&inv.Lines[i])
		row := make([]any, len(r.lineColumns))
		for j, col := range r.lineColumns {
			row[j] = values[col]
		}
		lq = lq.Values(row...)
	}

	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice lines: %w", err)
	}
	return nil
}

// Delete removes the invoice and its lines.
func (r *InvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM doc_invoice_lines WHERE invoice_id = $1", invoiceID); err != nil {
		return fmt.Errorf("delete invoice lines: %w", err)
	}
	if _, err := querier.Exec(ctx, "DELETE FROM doc_invoices WHERE id = $1", invoiceID); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

// OpenBySupplier returns invoices with remaining balance, oldest first.
// Deterministic ordering keeps FIFO allocation stable across runs.
func (r *InvoiceRepo) OpenBySupplier(ctx context.Context, supplierID id.ID) ([]*finance.Invoice, error) {
	q := r.builder.Select(r.columns...).
		From(invoiceTable).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		Where("gross_total > paid_to_date").
		OrderBy("date ASC", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var invoices []*finance.Invoice
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &invoices, sql, args...); err != nil {
		return nil, fmt.Errorf("select open invoices: %w", err)
	}
	return invoices, nil
}

// UpdatePaidToDate overwrites the paid-to-date projection.
func (r *InvoiceRepo) UpdatePaidToDate(ctx context.Context, invoiceID id.ID, paid types.Money) error {
	q := r.builder.Update(invoiceTable).
		Set("paid_to_date", paid).
		Where(squirrel.Eq{"id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update paid to date: %w", err)
	}
	return nil
}

// List returns invoices by filter, newest first.
func (r *InvoiceRepo) List(ctx context.Context, filter finance.InvoiceFilter) ([]*finance.Invoice, error) {
	q := r.builder.Select(r.columns...).From(invoiceTable)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}

	q = q.OrderBy("date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var invoices []*finance.Invoice
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &invoices, sql, args...); err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	return invoices, nil
}

// Ensure interface compliance.
var _ finance.InvoiceRepository = (*InvoiceRepo)(nil)
