package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
)

func TestLockQuote_ForeignCurrency(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(10), types.MustMoney("1000"), "USD")
	quote.VATRate = 20

	repo := newFakeQuoteRepo(quote)
	provider := &fakeRateProvider{rate: types.MustMoney("30")}
	svc := NewCurrencyLockService(repo, provider, &fakeTxManager{})

	snap, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)

	assert.True(t, snap.Net.Equal(types.MustMoney("300000")), "net %s", snap.Net)
	assert.True(t, snap.VAT.Equal(types.MustMoney("60000")), "vat %s", snap.VAT)
	assert.True(t, snap.Gross.Equal(types.MustMoney("360000")), "gross %s", snap.Gross)
	assert.True(t, snap.Net.Add(snap.VAT).Equal(snap.Gross))
	assert.Equal(t, "TCMB", snap.RateSource)

	stored, _ := repo.GetByID(ctx, quote.ID)
	assert.True(t, stored.IsLocked())
}

func TestLockQuote_WriteOnce(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(10), types.MustMoney("1000"), "USD")
	repo := newFakeQuoteRepo(quote)
	provider := &fakeRateProvider{rate: types.MustMoney("30")}
	svc := NewCurrencyLockService(repo, provider, &fakeTxManager{})

	first, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)

	// The provider moves; a second lock still returns the stored snapshot.
	provider.rate = types.MustMoney("45")
	second, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)

	assert.True(t, second.Gross.Equal(first.Gross))
	assert.Equal(t, 1, provider.calls)
}

func TestLockQuote_ForceRecomputes(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(10), types.MustMoney("1000"), "USD")
	repo := newFakeQuoteRepo(quote)
	provider := &fakeRateProvider{rate: types.MustMoney("30")}
	svc := NewCurrencyLockService(repo, provider, &fakeTxManager{})

	_, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)

	provider.rate = types.MustMoney("45")
	forced, err := svc.LockQuote(ctx, quote.ID, nil, true)
	require.NoError(t, err)
	assert.True(t, forced.Gross.Equal(types.MustMoney("540000")), "gross %s", forced.Gross)
}

func TestLockQuote_ManualRateWins(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(1), types.MustMoney("100"), "USD")
	quote.VATRate = 0
	quote.ManualRate = types.MustMoney("28.5")

	repo := newFakeQuoteRepo(quote)
	provider := &fakeRateProvider{rate: types.MustMoney("30")}
	svc := NewCurrencyLockService(repo, provider, &fakeTxManager{})

	snap, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "manual", snap.RateSource)
	assert.True(t, snap.Net.Equal(types.MustMoney("2850")))
	assert.Equal(t, 0, provider.calls)
}

func TestLockQuote_LocalCurrency(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(2), types.MustMoney("500"), "TRY")
	quote.VATRate = 20

	repo := newFakeQuoteRepo(quote)
	svc := NewCurrencyLockService(repo, nil, &fakeTxManager{})

	snap, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "local", snap.RateSource)
	assert.True(t, snap.Rate.Equal(types.MustMoney("1")))
	assert.True(t, snap.Net.Equal(types.MustMoney("1000")))
	assert.True(t, snap.Gross.Equal(types.MustMoney("1200")))
}

func TestLockQuote_NoRateAvailable(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(1), types.MustMoney("100"), "USD")

	repo := newFakeQuoteRepo(quote)
	svc := NewCurrencyLockService(repo, nil, &fakeTxManager{})

	_, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRateUnavailable, appErr.Code)

	stored, _ := repo.GetByID(ctx, quote.ID)
	assert.False(t, stored.IsLocked())
}

type recordingAuditor struct {
	entries []string
}

func (r *recordingAuditor) Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	r.entries = append(r.entries, entityType+":"+action)
	return nil
}

func TestLockQuote_RecordsAuditEntry(t *testing.T) {
	ctx := context.Background()
	quote := NewQuote(id.New(), id.New(), qty(1), types.MustMoney("100"), "TRY")

	repo := newFakeQuoteRepo(quote)
	auditor := &recordingAuditor{}
	svc := NewCurrencyLockService(repo, nil, &fakeTxManager{}).WithAuditor(auditor)

	_, err := svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)
	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "quote:lock", auditor.entries[0])

	// Replays return the snapshot without a second entry.
	_, err = svc.LockQuote(ctx, quote.ID, nil, false)
	require.NoError(t, err)
	assert.Len(t, auditor.entries, 1)
}

func TestLockQuote_VATInclusiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	// Awkward numbers: rounding must never break net + vat == gross.
	quote := NewQuote(id.New(), id.New(), types.NewQuantityFromFloat64(3.3333), types.MustMoney("99.99"), "EUR")
	quote.VATRate = 18
	quote.VATInclusive = true

	repo := newFakeQuoteRepo(quote)
	provider := &fakeRateProvider{rate: types.MustMoney("32.9877")}
	svc := NewCurrencyLockService(repo, provider, &fakeTxManager{})

	asOf := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	snap, err := svc.LockQuote(ctx, quote.ID, &asOf, false)
	require.NoError(t, err)

	assert.True(t, snap.Net.Add(snap.VAT).Equal(snap.Gross))
	assert.Equal(t, asOf, snap.RateDate)
}
