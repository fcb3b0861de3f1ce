package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/procurement"
)

type invoiceFixture struct {
	service     *InvoiceService
	invoices    *fakeInvoiceRepo
	allocations *fakeAllocationRepo
	movements   *fakeLedgerRepo
	warehouses  *fakeWarehouseRepo
	orders      *fakeOrderRepo
	supplierID  id.ID
}

func newInvoiceFixture() *invoiceFixture {
	fx := &invoiceFixture{
		invoices:    newFakeInvoiceRepo(),
		allocations: &fakeAllocationRepo{},
		movements:   newFakeLedgerRepo(),
		warehouses:  newFakeWarehouseRepo(),
		orders:      newFakeOrderRepo(),
		supplierID:  id.New(),
	}
	quotes := newFakeQuoteRepo()
	txm := &fakeTxManager{}
	lock := procurement.NewCurrencyLockService(quotes, nil, txm)
	procSvc := procurement.NewService(quotes, fx.orders, lock, txm)

	fx.service = NewInvoiceService(
		fx.invoices, fx.allocations, ledger.NewService(fx.movements),
		fx.warehouses, procSvc, &fakeNumberer{}, txm,
	)
	return fx
}

func (fx *invoiceFixture) order(t *testing.T, ordered int64) *procurement.PurchaseOrder {
	t.Helper()
	o := procurement.NewPurchaseOrder(id.New(), types.NewQuantityFromInt(ordered), time.Now())
	require.NoError(t, fx.orders.Create(context.Background(), o))
	return o
}

func TestInvoiceCreate_PostsVendorStockPerMaterialLine(t *testing.T) {
	ctx := context.Background()
	fx := newInvoiceFixture()

	steel := id.New()
	cement := id.New()

	inv := NewInvoice(fx.supplierID)
	inv.Date = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	inv.Lines = []InvoiceLine{
		{MaterialID: steel, Quantity: types.NewQuantityFromInt(10), UnitPrice: types.MustMoney("1000"), VATRate: 20},
		{MaterialID: cement, Quantity: types.NewQuantityFromInt(50), UnitPrice: types.MustMoney("80"), VATRate: 20},
		{MaterialID: id.New(), Quantity: types.NewQuantityFromInt(1), UnitPrice: types.MustMoney("5000"), VATRate: 20, IsService: true},
	}

	require.NoError(t, fx.service.Create(ctx, inv))
	assert.Equal(t, "INV-2026-00001", inv.InvoiceNo)
	assert.True(t, inv.GrossTotal.Equal(types.MustMoney("22800")), "gross %s", inv.GrossTotal)

	// Two material lines post; the service line does not.
	assert.Len(t, fx.movements.movements, 2)

	vendor := fx.warehouses.vendor
	balance, err := fx.movements.Balance(ctx, steel, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)

	for _, m := range fx.movements.movements {
		assert.Equal(t, ledger.DirectionIn, m.Direction)
		assert.Equal(t, vendor.ID, m.WarehouseID)
		require.NotNil(t, m.SupplierID)
		assert.Equal(t, fx.supplierID, *m.SupplierID)
	}
}

func TestInvoiceCreate_AccruesInvoicedQuantityOnOrder(t *testing.T) {
	ctx := context.Background()
	fx := newInvoiceFixture()
	order := fx.order(t, 100)

	inv := NewInvoice(fx.supplierID)
	inv.Lines = []InvoiceLine{
		{MaterialID: id.New(), OrderID: &order.ID, Quantity: types.NewQuantityFromInt(30), UnitPrice: types.MustMoney("10"), VATRate: 20},
	}
	require.NoError(t, fx.service.Create(ctx, inv))

	stored, _ := fx.orders.GetByID(ctx, order.ID)
	assert.Equal(t, types.NewQuantityFromInt(30), stored.InvoicedQty)

	movement := fx.movements.movements[0]
	require.NotNil(t, movement.OrderID)
	assert.Equal(t, order.ID, *movement.OrderID)
}

func TestInvoiceCreate_RejectsEmptyInvoice(t *testing.T) {
	fx := newInvoiceFixture()

	err := fx.service.Create(context.Background(), NewInvoice(fx.supplierID))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestInvoiceDelete_ReversesStockAndInvoicedQuantity(t *testing.T) {
	ctx := context.Background()
	fx := newInvoiceFixture()
	order := fx.order(t, 100)

	material := id.New()
	inv := NewInvoice(fx.supplierID)
	inv.Lines = []InvoiceLine{
		{MaterialID: material, OrderID: &order.ID, Quantity: types.NewQuantityFromInt(30), UnitPrice: types.MustMoney("10"), VATRate: 20},
	}
	require.NoError(t, fx.service.Create(ctx, inv))

	require.NoError(t, fx.service.Delete(ctx, inv.ID))

	assert.Empty(t, fx.movements.movements)

	stored, _ := fx.orders.GetByID(ctx, order.ID)
	assert.True(t, stored.InvoicedQty.IsZero())

	_, err := fx.invoices.GetByID(ctx, inv.ID)
	require.Error(t, err)
}

func TestInvoiceDelete_BlockedBySettlements(t *testing.T) {
	ctx := context.Background()
	fx := newInvoiceFixture()

	inv := NewInvoice(fx.supplierID)
	inv.Lines = []InvoiceLine{
		{MaterialID: id.New(), Quantity: types.NewQuantityFromInt(1), UnitPrice: types.MustMoney("100"), VATRate: 20},
	}
	require.NoError(t, fx.service.Create(ctx, inv))

	alloc := &Allocation{
		ID:         id.New(),
		PaymentID:  id.New(),
		TargetKind: TargetInvoice,
		TargetID:   inv.ID,
		Amount:     types.MustMoney("50"),
		Date:       time.Now(),
		CreatedAt:  time.Now(),
	}
	require.NoError(t, fx.allocations.Create(ctx, alloc))

	err := fx.service.Delete(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))

	// Invoice and its movements stay.
	_, err = fx.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, fx.movements.movements, 1)
}
