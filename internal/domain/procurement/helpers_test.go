package procurement

import (
	"context"
	"sort"
	"time"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/rates"
)

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeQuoteRepo struct {
	quotes map[id.ID]*Quote
}

func newFakeQuoteRepo(items ...*Quote) *fakeQuoteRepo {
	f := &fakeQuoteRepo{quotes: make(map[id.ID]*Quote)}
	for _, q := range items {
		copied := *q
		f.quotes[q.ID] = &copied
	}
	return f
}

func (f *fakeQuoteRepo) GetByID(ctx context.Context, quoteID id.ID) (*Quote, error) {
	q, ok := f.quotes[quoteID]
	if !ok {
		return nil, apperror.NewNotFound("quote", quoteID)
	}
	copied := *q
	return &copied, nil
}

func (f *fakeQuoteRepo) GetForUpdate(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return f.GetByID(ctx, quoteID)
}

func (f *fakeQuoteRepo) Create(ctx context.Context, q *Quote) error {
	copied := *q
	f.quotes[q.ID] = &copied
	return nil
}

func (f *fakeQuoteRepo) Update(ctx context.Context, q *Quote) error {
	stored, ok := f.quotes[q.ID]
	if !ok {
		return apperror.NewNotFound("quote", q.ID)
	}
	if stored.Version != q.Version-1 {
		return apperror.NewConcurrentModification("quote", q.ID)
	}
	copied := *q
	f.quotes[q.ID] = &copied
	return nil
}

func (f *fakeQuoteRepo) List(ctx context.Context, filter QuoteFilter) ([]*Quote, error) {
	var out []*Quote
	for _, q := range f.quotes {
		copied := *q
		out = append(out, &copied)
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders map[id.ID]*PurchaseOrder
	// quoteMaterials maps quote to material for OpenByMaterial joins.
	quoteMaterials map[id.ID]id.ID
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:         make(map[id.ID]*PurchaseOrder),
		quoteMaterials: make(map[id.ID]id.ID),
	}
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return f.GetByID(ctx, orderID)
}

func (f *fakeOrderRepo) GetByQuote(ctx context.Context, quoteID id.ID) (*PurchaseOrder, error) {
	for _, o := range f.orders {
		if o.QuoteID == quoteID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("order", quoteID)
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *PurchaseOrder) error {
	copied := *o
	f.orders[o.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, o *PurchaseOrder) error {
	stored, ok := f.orders[o.ID]
	if !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	if stored.Version != o.Version-1 {
		return apperror.NewConcurrentModification("order", o.ID)
	}
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

func (f *fakeOrderRepo) OpenByMaterial(ctx context.Context, materialID id.ID) ([]*PurchaseOrder, error) {
	var out []*PurchaseOrder
	for _, o := range f.orders {
		if f.quoteMaterials[o.QuoteID] != materialID {
			continue
		}
		if o.DeliveryStatus == DeliveryComplete {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, filter OrderFilter) ([]*PurchaseOrder, error) {
	var out []*PurchaseOrder
	for _, o := range f.orders {
		copied := *o
		out = append(out, &copied)
	}
	return out, nil
}

type fakeRateProvider struct {
	rate  types.Money
	err   error
	calls int
}

func (f *fakeRateProvider) Rate(ctx context.Context, currency string, date *time.Time) (rates.Result, error) {
	f.calls++
	if f.err != nil {
		return rates.Result{}, f.err
	}
	d := time.Now().UTC()
	if date != nil {
		d = *date
	}
	return rates.Result{Rate: f.rate, Source: "TCMB", Date: d}, nil
}

// fakeMovementRepo implements just enough of ledger.Repository for the
// FIFO matcher.
type fakeMovementRepo struct {
	movements []ledger.Movement
}

func (f *fakeMovementRepo) Insert(ctx context.Context, movements []ledger.Movement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeMovementRepo) InsertIfAbsent(ctx context.Context, m ledger.Movement) (bool, error) {
	f.movements = append(f.movements, m)
	return true, nil
}

func (f *fakeMovementRepo) DeleteByRef(ctx context.Context, kind ledger.RefKind, refID id.ID) error {
	return nil
}

func (f *fakeMovementRepo) BindOrder(ctx context.Context, lineID, orderID id.ID) (bool, error) {
	for i := range f.movements {
		if f.movements[i].LineID == lineID {
			if f.movements[i].OrderID != nil {
				return false, nil
			}
			f.movements[i].OrderID = &orderID
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMovementRepo) Balance(ctx context.Context, materialID, warehouseID id.ID) (types.Quantity, error) {
	var total types.Quantity
	for i := range f.movements {
		m := &f.movements[i]
		if m.MaterialID == materialID && m.WarehouseID == warehouseID {
			total += m.SignedQuantity()
		}
	}
	return total, nil
}

func (f *fakeMovementRepo) AvailableBalance(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	return 0, nil
}

func (f *fakeMovementRepo) PendingInVendor(ctx context.Context, orderID id.ID) (types.Quantity, error) {
	var total types.Quantity
	for i := range f.movements {
		m := &f.movements[i]
		if m.OrderID != nil && *m.OrderID == orderID {
			total += m.SignedQuantity()
		}
	}
	return total, nil
}

func (f *fakeMovementRepo) ListByRef(ctx context.Context, kind ledger.RefKind, refID id.ID) ([]ledger.Movement, error) {
	return nil, nil
}

func (f *fakeMovementRepo) GetByLineID(ctx context.Context, lineID id.ID) (*ledger.Movement, error) {
	for i := range f.movements {
		if f.movements[i].LineID == lineID {
			copied := f.movements[i]
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("movement", lineID)
}

func (f *fakeMovementRepo) History(ctx context.Context, materialID id.ID, filter ledger.HistoryFilter) ([]ledger.Movement, error) {
	return nil, nil
}
