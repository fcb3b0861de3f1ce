package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/types"
)

const tcmbFixture = `<?xml version="1.0" encoding="UTF-8"?>
<Tarih_Date Tarih="14.03.2026" Date="03/14/2026">
	<Currency CurrencyCode="USD">
		<Unit>1</Unit>
		<ForexBuying>30,1012</ForexBuying>
		<ForexSelling>30,2501</ForexSelling>
	</Currency>
	<Currency CurrencyCode="EUR">
		<Unit>1</Unit>
		<ForexSelling>32,98765</ForexSelling>
	</Currency>
	<Currency CurrencyCode="SAR">
		<Unit>1</Unit>
		<ForexSelling></ForexSelling>
		<BanknoteSelling>8,0655</BanknoteSelling>
	</Currency>
</Tarih_Date>`

func newFixtureServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(tcmbFixture))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestTCMBProvider_ParsesCommaDecimals(t *testing.T) {
	srv, _ := newFixtureServer(t)
	provider := NewTCMBProviderWithClient(srv.Client(), srv.URL)

	res, err := provider.Rate(context.Background(), "USD", nil)
	require.NoError(t, err)
	assert.True(t, res.Rate.Equal(types.MustMoney("30.2501")), "got %s", res.Rate)
	assert.Equal(t, "TCMB", res.Source)
}

func TestTCMBProvider_RoundsRateToFourPlaces(t *testing.T) {
	srv, _ := newFixtureServer(t)
	provider := NewTCMBProviderWithClient(srv.Client(), srv.URL)

	res, err := provider.Rate(context.Background(), "EUR", nil)
	require.NoError(t, err)
	assert.True(t, res.Rate.Equal(types.MustMoney("32.9877")), "got %s", res.Rate)
}

func TestTCMBProvider_BanknoteFallback(t *testing.T) {
	srv, _ := newFixtureServer(t)
	provider := NewTCMBProviderWithClient(srv.Client(), srv.URL)

	res, err := provider.Rate(context.Background(), "SAR", nil)
	require.NoError(t, err)
	assert.True(t, res.Rate.Equal(types.MustMoney("8.0655")))
}

func TestTCMBProvider_LocalCurrencyIsAlwaysOne(t *testing.T) {
	provider := NewTCMBProvider()

	res, err := provider.Rate(context.Background(), "try", nil)
	require.NoError(t, err)
	assert.True(t, res.Rate.Equal(types.MustMoney("1")))
	assert.Equal(t, "local", res.Source)
}

func TestTCMBProvider_UnknownCurrency(t *testing.T) {
	srv, _ := newFixtureServer(t)
	provider := NewTCMBProviderWithClient(srv.Client(), srv.URL)

	_, err := provider.Rate(context.Background(), "XXX", nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRateUnavailable, appErr.Code)
}

func TestTCMBProvider_MissingDatedFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	provider := NewTCMBProviderWithClient(srv.Client(), srv.URL)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) // Sunday, no file published
	_, err := provider.Rate(context.Background(), "USD", &date)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRateUnavailable, appErr.Code)
	assert.Equal(t, "2026-03-15", appErr.Details["date"])
}

func TestTCMBProvider_DatedURLFormat(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(tcmbFixture))
	}))
	t.Cleanup(srv.Close)
	provider := NewTCMBProviderWithClient(srv.Client(), srv.URL)

	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	_, err := provider.Rate(context.Background(), "USD", &date)
	require.NoError(t, err)
	assert.Equal(t, "/202603/13032026.xml", gotPath)
}

func TestCachingProvider_LatestExpires(t *testing.T) {
	srv, hits := newFixtureServer(t)
	provider := NewCachingProvider(NewTCMBProviderWithClient(srv.Client(), srv.URL), 50*time.Millisecond)

	_, err := provider.Rate(context.Background(), "USD", nil)
	require.NoError(t, err)
	_, err = provider.Rate(context.Background(), "USD", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)

	time.Sleep(60 * time.Millisecond)

	_, err = provider.Rate(context.Background(), "USD", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, *hits)
}

func TestCachingProvider_DatedLookupsPinned(t *testing.T) {
	srv, hits := newFixtureServer(t)
	provider := NewCachingProvider(NewTCMBProviderWithClient(srv.Client(), srv.URL), time.Nanosecond)

	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	_, err := provider.Rate(context.Background(), "USD", &date)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	// Historical rates never change, so the TTL does not apply.
	_, err = provider.Rate(context.Background(), "USD", &date)
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)
}
