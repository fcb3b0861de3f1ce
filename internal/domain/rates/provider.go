// Package rates provides exchange-rate resolution for the currency lock.
// The provider is an explicit dependency injected into the lock service;
// caching, if any, wraps the interface as a decorator. No global state.
package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LocalCurrency is the accounting currency; everything locks into it.
const LocalCurrency = "TRY"

// Result carries a resolved rate with its provenance. Rate is the amount of
// local currency one unit of the foreign currency buys, 4 decimal places.
type Result struct {
	Rate   decimal.Decimal
	Source string
	Date   time.Time
}

// Provider supplies exchange rates for a currency code, optionally for a
// historical date. A nil date means "latest available".
//
// Implementations must return an error when no rate exists; callers never
// receive a silent 1.0 fallback for foreign currencies.
type Provider interface {
	Rate(ctx context.Context, currency string, date *time.Time) (Result, error)
}
