package procurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func TestOriginalAmounts_VATExclusive(t *testing.T) {
	q := NewQuote(id.New(), id.New(), qty(10), types.MustMoney("1000"), "USD")
	q.VATRate = 20

	net, vat, gross := q.OriginalAmounts()
	assert.True(t, net.Equal(types.MustMoney("10000")), "net %s", net)
	assert.True(t, vat.Equal(types.MustMoney("2000")), "vat %s", vat)
	assert.True(t, gross.Equal(types.MustMoney("12000")), "gross %s", gross)
}

func TestOriginalAmounts_VATInclusive(t *testing.T) {
	q := NewQuote(id.New(), id.New(), qty(1), types.MustMoney("120"), "TRY")
	q.VATRate = 20
	q.VATInclusive = true

	net, vat, gross := q.OriginalAmounts()
	assert.True(t, gross.Equal(types.MustMoney("120")))
	assert.True(t, net.Equal(types.MustMoney("100")), "net %s", net)
	assert.True(t, vat.Equal(types.MustMoney("20")), "vat %s", vat)
}

func TestOriginalAmounts_Exempt(t *testing.T) {
	q := NewQuote(id.New(), id.New(), qty(5), types.MustMoney("200"), "TRY")
	q.VATRate = VATRateExempt

	net, vat, gross := q.OriginalAmounts()
	assert.True(t, net.Equal(types.MustMoney("1000")))
	assert.True(t, vat.IsZero())
	assert.True(t, gross.Equal(net))
}

func TestRecalcDeliveryStatus(t *testing.T) {
	o := NewPurchaseOrder(id.New(), qty(100), time.Now())
	assert.Equal(t, DeliveryPending, o.DeliveryStatus)
	assert.True(t, o.IsOpen())

	o.DeliveredQty = qty(40)
	o.RecalcDeliveryStatus()
	assert.Equal(t, DeliveryPartial, o.DeliveryStatus)
	assert.Equal(t, qty(60), o.RemainingToDeliver())

	o.DeliveredQty = qty(100)
	o.RecalcDeliveryStatus()
	assert.Equal(t, DeliveryComplete, o.DeliveryStatus)
	assert.False(t, o.IsOpen())

	// Over-delivery stays complete, remaining floors at zero.
	o.DeliveredQty = qty(110)
	o.RecalcDeliveryStatus()
	assert.Equal(t, DeliveryComplete, o.DeliveryStatus)
	assert.Equal(t, types.Quantity(0), o.RemainingToDeliver())
}

func TestCompletionPercent_CappedAt100(t *testing.T) {
	o := NewPurchaseOrder(id.New(), qty(100), time.Now())

	o.DeliveredQty = qty(25)
	assert.True(t, o.CompletionPercent().Equal(types.MustMoney("25")))

	o.DeliveredQty = qty(150)
	assert.True(t, o.CompletionPercent().Equal(types.MustMoney("100")))

	zero := NewPurchaseOrder(id.New(), 0, time.Now())
	assert.True(t, zero.CompletionPercent().IsZero())
}
