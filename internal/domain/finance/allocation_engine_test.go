package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrika/internal/core/entity"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/billing"
	"fabrika/internal/domain/procurement"
)

type allocFixture struct {
	engine      *AllocationEngine
	invoices    *fakeInvoiceRepo
	payments    *fakePaymentRepo
	allocations *fakeAllocationRepo
	claims      *fakeClaimRepo
	orders      *fakeOrderRepo
	supplierID  id.ID
}

func newAllocFixture() *allocFixture {
	fx := &allocFixture{
		invoices:    newFakeInvoiceRepo(),
		payments:    newFakePaymentRepo(),
		allocations: &fakeAllocationRepo{},
		claims:      newFakeClaimRepo(),
		orders:      newFakeOrderRepo(),
		supplierID:  id.New(),
	}
	fx.engine = NewAllocationEngine(
		fx.payments, fx.invoices, fx.allocations, fx.claims, fx.orders,
		&fakeNumberer{}, &fakeTxManager{},
	)
	return fx
}

func (fx *allocFixture) openInvoice(t *testing.T, gross string, date time.Time) *Invoice {
	t.Helper()
	inv := NewInvoice(fx.supplierID)
	inv.Date = date
	inv.GrossTotal = types.MustMoney(gross)
	require.NoError(t, fx.invoices.Create(context.Background(), inv))
	return inv
}

func (fx *allocFixture) payment(t *testing.T, amount string) *Payment {
	t.Helper()
	p := NewPayment(fx.supplierID, types.MustMoney(amount), PaymentWire)
	require.NoError(t, fx.engine.CreatePayment(context.Background(), p))
	return p
}

func TestAllocate_FifoAcrossOpenInvoices(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	older := fx.openInvoice(t, "300", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	newer := fx.openInvoice(t, "400", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p := fx.payment(t, "500")

	remainder, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, remainder.IsZero(), "remainder %s", remainder)

	storedOlder, _ := fx.invoices.GetByID(ctx, older.ID)
	storedNewer, _ := fx.invoices.GetByID(ctx, newer.ID)
	assert.True(t, storedOlder.PaidToDate.Equal(types.MustMoney("300")))
	assert.True(t, storedNewer.PaidToDate.Equal(types.MustMoney("200")))
	assert.True(t, storedNewer.RemainingBalance().Equal(types.MustMoney("200")))
}

func TestAllocate_ConservesPaymentAmount(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	fx.openInvoice(t, "120.50", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	fx.openInvoice(t, "79.49", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p := fx.payment(t, "350")

	advance, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)

	allocated, err := fx.allocations.SumByPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, allocated.Add(advance).Equal(p.Amount),
		"allocated %s + advance %s != amount %s", allocated, advance, p.Amount)
	assert.True(t, advance.Equal(types.MustMoney("150.01")))
}

func TestAllocate_ReplayConsumesOnlyRemainder(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	fx.openInvoice(t, "300", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	p := fx.payment(t, "300")

	first, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, first.IsZero())

	// Nothing left to allocate; the replay creates no records.
	second, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, second.IsZero())
	assert.Len(t, fx.allocations.allocations, 1)
}

func TestAllocate_ExplicitTargets(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	older := fx.openInvoice(t, "300", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	newer := fx.openInvoice(t, "400", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p := fx.payment(t, "100")

	_, err := fx.engine.Allocate(ctx, p.ID, []TargetRef{{Kind: TargetInvoice, ID: newer.ID}})
	require.NoError(t, err)

	storedOlder, _ := fx.invoices.GetByID(ctx, older.ID)
	storedNewer, _ := fx.invoices.GetByID(ctx, newer.ID)
	assert.True(t, storedOlder.PaidToDate.IsZero())
	assert.True(t, storedNewer.PaidToDate.Equal(types.MustMoney("100")))
}

func TestAllocate_ClaimLinkedPaymentHitsClaimFirst(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	order := procurement.NewPurchaseOrder(id.New(), types.NewQuantityFromInt(10), time.Now())
	require.NoError(t, fx.orders.Create(ctx, order))

	claim := &billing.ProgressClaim{
		BaseDocument: entity.NewBaseDocument(),
		OrderID:      order.ID,
		Gross:        types.MustMoney("150000"),
		VATAmount:    types.MustMoney("30000"),
	}
	require.NoError(t, fx.claims.Create(ctx, claim))

	fx.openInvoice(t, "400", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	p := NewPayment(fx.supplierID, types.MustMoney("50000"), PaymentWire)
	p.ClaimID = &claim.ID
	require.NoError(t, fx.engine.CreatePayment(ctx, p))

	remainder, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, remainder.IsZero())

	storedClaim, _ := fx.claims.GetByID(ctx, claim.ID)
	assert.True(t, storedClaim.PaidToDate.Equal(types.MustMoney("50000")))

	// The claim's allocation rolls up into the order.
	storedOrder, _ := fx.orders.GetByID(ctx, order.ID)
	assert.True(t, storedOrder.PaidToDate.Equal(types.MustMoney("50000")))
}

func TestDeletePayment_RederivesPaidToDate(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	inv := fx.openInvoice(t, "300", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	p := fx.payment(t, "300")

	_, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)

	stored, _ := fx.invoices.GetByID(ctx, inv.ID)
	require.True(t, stored.PaidToDate.Equal(types.MustMoney("300")))

	require.NoError(t, fx.engine.DeletePayment(ctx, p.ID))

	stored, _ = fx.invoices.GetByID(ctx, inv.ID)
	assert.True(t, stored.PaidToDate.IsZero())
	assert.Empty(t, fx.allocations.allocations)

	_, err = fx.payments.GetByID(ctx, p.ID)
	require.Error(t, err)
}

func TestAdvanceRemainder(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	fx.openInvoice(t, "100", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	p := fx.payment(t, "250")

	_, err := fx.engine.Allocate(ctx, p.ID, nil)
	require.NoError(t, err)

	advance, err := fx.engine.AdvanceRemainder(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, advance.Equal(decimal.NewFromInt(150)))
}

func TestCreatePayment_NumbersAndChequeDueDate(t *testing.T) {
	ctx := context.Background()
	fx := newAllocFixture()

	p := NewPayment(fx.supplierID, types.MustMoney("1000"), PaymentCheque)
	p.Date = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fx.engine.CreatePayment(ctx, p))

	assert.Equal(t, "PAY-2026-00001", p.PaymentNo)
	require.NotNil(t, p.ChequeDueDate)
	assert.Equal(t, p.Date, *p.ChequeDueDate)
}
