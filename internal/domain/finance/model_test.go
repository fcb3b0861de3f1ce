package finance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

func TestInvoiceLine_RecalcAmounts(t *testing.T) {
	line := InvoiceLine{
		Quantity:  types.NewQuantityFromInt(10),
		UnitPrice: types.MustMoney("1000"),
		VATRate:   20,
	}
	line.RecalcAmounts()

	assert.True(t, line.Net.Equal(types.MustMoney("10000")), "net %s", line.Net)
	assert.True(t, line.VATAmount.Equal(types.MustMoney("2000")), "vat %s", line.VATAmount)
	assert.True(t, line.Gross.Equal(types.MustMoney("12000")), "gross %s", line.Gross)
}

func TestInvoiceLine_RecalcAmounts_RoundingPreservesSum(t *testing.T) {
	line := InvoiceLine{
		Quantity:  types.NewQuantityFromFloat64(3.3333),
		UnitPrice: types.MustMoney("99.99"),
		VATRate:   18,
	}
	line.RecalcAmounts()

	assert.True(t, line.Net.Add(line.VATAmount).Equal(line.Gross))
}

func TestInvoice_RecalcTotals(t *testing.T) {
	inv := NewInvoice(id.New())
	inv.Lines = []InvoiceLine{
		{Quantity: types.NewQuantityFromInt(2), UnitPrice: types.MustMoney("150"), VATRate: 20},
		{Quantity: types.NewQuantityFromInt(1), UnitPrice: types.MustMoney("700"), VATRate: 20},
	}
	for i := range inv.Lines {
		inv.Lines[i].RecalcAmounts()
	}
	inv.RecalcTotals()

	assert.True(t, inv.NetTotal.Equal(types.MustMoney("1000")), "net %s", inv.NetTotal)
	assert.True(t, inv.VATTotal.Equal(types.MustMoney("200")), "vat %s", inv.VATTotal)
	assert.True(t, inv.GrossTotal.Equal(types.MustMoney("1200")), "gross %s", inv.GrossTotal)

	inv.PaidToDate = types.MustMoney("500")
	assert.True(t, inv.RemainingBalance().Equal(types.MustMoney("700")))
}

func TestInvoice_ValidateRequiresLines(t *testing.T) {
	inv := NewInvoice(id.New())

	err := inv.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPayment_Validate(t *testing.T) {
	p := NewPayment(id.New(), types.MustMoney("1000"), PaymentWire)
	require.NoError(t, p.Validate(context.Background()))

	p.Amount = types.MustMoney("0")
	require.Error(t, p.Validate(context.Background()))

	p.Amount = types.MustMoney("1000")
	p.Kind = "barter"
	require.Error(t, p.Validate(context.Background()))
}
