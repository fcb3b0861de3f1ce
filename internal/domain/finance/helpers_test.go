package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/billing"
	"fabrika/internal/domain/catalogs/warehouse"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/procurement"
	"fabrika/pkg/numerator"
)

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNumberer struct {
	next int
}

func (f *fakeNumberer) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	f.next++
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), f.next), nil
}

type fakeInvoiceRepo struct {
	invoices map[id.ID]*Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[id.ID]*Invoice)}
}

func (f *fakeInvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, inv *Invoice) error {
	copied := *inv
	f.invoices[inv.ID] = &copied
	return nil
}

func (f *fakeInvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	if _, ok := f.invoices[invoiceID]; !ok {
		return apperror.NewNotFound("invoice", invoiceID)
	}
	delete(f.invoices, invoiceID)
	return nil
}

func (f *fakeInvoiceRepo) OpenBySupplier(ctx context.Context, supplierID id.ID) ([]*Invoice, error) {
	var out []*Invoice
	for _, inv := range f.invoices {
		if inv.SupplierID != supplierID {
			continue
		}
		if !inv.RemainingBalance().IsPositive() {
			continue
		}
		copied := *inv
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeInvoiceRepo) UpdatePaidToDate(ctx context.Context, invoiceID id.ID, paid types.Money) error {
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return apperror.NewNotFound("invoice", invoiceID)
	}
	inv.PaidToDate = paid
	return nil
}

func (f *fakeInvoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error) {
	var out []*Invoice
	for _, inv := range f.invoices {
		copied := *inv
		out = append(out, &copied)
	}
	return out, nil
}

type fakePaymentRepo struct {
	payments map[id.ID]*Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[id.ID]*Payment)}
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, apperror.NewNotFound("payment", paymentID)
	}
	copied := *p
	return &copied, nil
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *Payment) error {
	copied := *p
	f.payments[p.ID] = &copied
	return nil
}

func (f *fakePaymentRepo) Delete(ctx context.Context, paymentID id.ID) error {
	if _, ok := f.payments[paymentID]; !ok {
		return apperror.NewNotFound("payment", paymentID)
	}
	delete(f.payments, paymentID)
	return nil
}

func (f *fakePaymentRepo) List(ctx context.Context, filter PaymentFilter) ([]*Payment, error) {
	var out []*Payment
	for _, p := range f.payments {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

type fakeAllocationRepo struct {
	allocations []*Allocation
}

func (f *fakeAllocationRepo) Create(ctx context.Context, a *Allocation) error {
	copied := *a
	f.allocations = append(f.allocations, &copied)
	return nil
}

func (f *fakeAllocationRepo) ListByPayment(ctx context.Context, paymentID id.ID) ([]*Allocation, error) {
	var out []*Allocation
	for _, a := range f.allocations {
		if a.PaymentID == paymentID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAllocationRepo) SumByPayment(ctx context.Context, paymentID id.ID) (types.Money, error) {
	total := decimal.Zero
	for _, a := range f.allocations {
		if a.PaymentID == paymentID {
			total = total.Add(a.Amount)
		}
	}
	return total, nil
}

func (f *fakeAllocationRepo) SumByTarget(ctx context.Context, kind TargetKind, targetID id.ID) (types.Money, error) {
	total := decimal.Zero
	for _, a := range f.allocations {
		if a.TargetKind == kind && a.TargetID == targetID {
			total = total.Add(a.Amount)
		}
	}
	return total, nil
}

func (f *fakeAllocationRepo) DeleteByPayment(ctx context.Context, paymentID id.ID) ([]TargetRef, error) {
	var kept []*Allocation
	var touched []TargetRef
	for _, a := range f.allocations {
		if a.PaymentID == paymentID {
			touched = append(touched, TargetRef{Kind: a.TargetKind, ID: a.TargetID})
			continue
		}
		kept = append(kept, a)
	}
	f.allocations = kept
	return touched, nil
}

type fakeClaimRepo struct {
	claims map[id.ID]*billing.ProgressClaim
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[id.ID]*billing.ProgressClaim)}
}

func (f *fakeClaimRepo) GetByID(ctx context.Context, claimID id.ID) (*billing.ProgressClaim, error) {
	c, ok := f.claims[claimID]
	if !ok {
		return nil, apperror.NewNotFound("claim", claimID)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClaimRepo) Create(ctx context.Context, c *billing.ProgressClaim) error {
	copied := *c
	f.claims[c.ID] = &copied
	return nil
}

func (f *fakeClaimRepo) SumPercent(ctx context.Context, orderID id.ID) (types.Money, error) {
	total := decimal.Zero
	for _, c := range f.claims {
		if c.OrderID == orderID {
			total = total.Add(c.Percentage)
		}
	}
	return total, nil
}

func (f *fakeClaimRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]*billing.ProgressClaim, error) {
	var out []*billing.ProgressClaim
	for _, c := range f.claims {
		if c.OrderID == orderID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeClaimRepo) UpdatePaidToDate(ctx context.Context, claimID id.ID, paid types.Money) error {
	c, ok := f.claims[claimID]
	if !ok {
		return apperror.NewNotFound("claim", claimID)
	}
	c.PaidToDate = paid
	return nil
}

type fakeOrderRepo struct {
	orders map[id.ID]*procurement.PurchaseOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*procurement.PurchaseOrder)}
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*procurement.PurchaseOrder, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*procurement.PurchaseOrder, error) {
	return f.GetByID(ctx, orderID)
}

func (f *fakeOrderRepo) GetByQuote(ctx context.Context, quoteID id.ID) (*procurement.PurchaseOrder, error) {
	for _, o := range f.orders {
		if o.QuoteID == quoteID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("order", quoteID)
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *procurement.PurchaseOrder) error {
	copied := *o
	f.orders[o.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, o *procurement.PurchaseOrder) error {
	copied := *o
	f.orders[o.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) UpdatePaidToDate(ctx context.Context, orderID id.ID, paid types.Money) error {
	o, ok := f.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.PaidToDate = paid
	return nil
}

func (f *fakeOrderRepo) OpenByMaterial(ctx context.Context, materialID id.ID) ([]*procurement.PurchaseOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, filter procurement.OrderFilter) ([]*procurement.PurchaseOrder, error) {
	return nil, nil
}

type fakeQuoteRepo struct {
	quotes map[id.ID]*procurement.Quote
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: make(map[id.ID]*procurement.Quote)}
}

func (f *fakeQuoteRepo) GetByID(ctx context.Context, quoteID id.ID) (*procurement.Quote, error) {
	q, ok := f.quotes[quoteID]
	if !ok {
		return nil, apperror.NewNotFound("quote", quoteID)
	}
	copied := *q
	return &copied, nil
}

func (f *fakeQuoteRepo) GetForUpdate(ctx context.Context, quoteID id.ID) (*procurement.Quote, error) {
	return f.GetByID(ctx, quoteID)
}

func (f *fakeQuoteRepo) Create(ctx context.Context, q *procurement.Quote) error {
	copied := *q
	f.quotes[q.ID] = &copied
	return nil
}

func (f *fakeQuoteRepo) Update(ctx context.Context, q *procurement.Quote) error {
	copied := *q
	f.quotes[q.ID] = &copied
	return nil
}

func (f *fakeQuoteRepo) List(ctx context.Context, filter procurement.QuoteFilter) ([]*procurement.Quote, error) {
	return nil, nil
}

type fakeWarehouseRepo struct {
	warehouses map[id.ID]*warehouse.Warehouse
	vendor     *warehouse.Warehouse
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	vendor := warehouse.NewWarehouse("VND", "Vendor stock", warehouse.KindVendorVirtual)
	return &fakeWarehouseRepo{
		warehouses: map[id.ID]*warehouse.Warehouse{vendor.ID: vendor},
		vendor:     vendor,
	}
}

func (f *fakeWarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	w, ok := f.warehouses[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return w, nil
}

func (f *fakeWarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	f.warehouses[w.ID] = w
	return nil
}

func (f *fakeWarehouseRepo) List(ctx context.Context) ([]*warehouse.Warehouse, error) {
	var out []*warehouse.Warehouse
	for _, w := range f.warehouses {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWarehouseRepo) FirstVendorVirtual(ctx context.Context) (*warehouse.Warehouse, error) {
	return f.vendor, nil
}

type refKey struct {
	kind        ledger.RefKind
	refID       id.ID
	direction   ledger.RefDirection
	materialID  id.ID
	warehouseID id.ID
}

type fakeLedgerRepo struct {
	movements []ledger.Movement
	byRef     map[refKey]bool
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{byRef: make(map[refKey]bool)}
}

func (f *fakeLedgerRepo) Insert(ctx context.Context, movements []ledger.Movement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeLedgerRepo) InsertIfAbsent(ctx context.Context, m ledger.Movement) (bool, error) {
	key := refKey{
		kind:        *m.RefKind,
		refID:       *m.RefID,
		direction:   *m.RefDirection,
		materialID:  m.MaterialID,
		warehouseID: m.WarehouseID,
	}
	if f.byRef[key] {
		return false, nil
	}
	f.byRef[key] = true
	f.movements = append(f.movements, m)
	return true, nil
}

func (f *fakeLedgerRepo) DeleteByRef(ctx context.Context, kind ledger.RefKind, refID id.ID) error {
	var kept []ledger.Movement
	for _, m := range f.movements {
		if m.RefKind != nil && *m.RefKind == kind && m.RefID != nil && *m.RefID == refID {
			delete(f.byRef, refKey{
				kind:        kind,
				refID:       refID,
				direction:   *m.RefDirection,
				materialID:  m.MaterialID,
				warehouseID: m.WarehouseID,
			})
			continue
		}
		kept = append(kept, m)
	}
	f.movements = kept
	return nil
}

func (f *fakeLedgerRepo) BindOrder(ctx context.Context, lineID, orderID id.ID) (bool, error) {
	return false, nil
}

func (f *fakeLedgerRepo) Balance(ctx context.Context, materialID, warehouseID id.ID) (types.Quantity, error) {
	var total types.Quantity
	for i := range f.movements {
		m := &f.movements[i]
		if m.MaterialID == materialID && m.WarehouseID == warehouseID {
			total += m.SignedQuantity()
		}
	}
	return total, nil
}

func (f *fakeLedgerRepo) AvailableBalance(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	return 0, nil
}

func (f *fakeLedgerRepo) PendingInVendor(ctx context.Context, orderID id.ID) (types.Quantity, error) {
	return 0, nil
}

func (f *fakeLedgerRepo) ListByRef(ctx context.Context, kind ledger.RefKind, refID id.ID) ([]ledger.Movement, error) {
	var out []ledger.Movement
	for _, m := range f.movements {
		if m.RefKind != nil && *m.RefKind == kind && m.RefID != nil && *m.RefID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) GetByLineID(ctx context.Context, lineID id.ID) (*ledger.Movement, error) {
	for i := range f.movements {
		if f.movements[i].LineID == lineID {
			copied := f.movements[i]
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("movement", lineID)
}

func (f *fakeLedgerRepo) History(ctx context.Context, materialID id.ID, filter ledger.HistoryFilter) ([]ledger.Movement, error) {
	return nil, nil
}
