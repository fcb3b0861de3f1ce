package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/tx"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/rates"
	"fabrika/pkg/logger"
)

// ChangeAuditor records document-level change history.
type ChangeAuditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// CurrencyLockService freezes a quote's local-currency amounts exactly once.
// Every downstream amount (claims, invoices, settlement) reads the snapshot,
// never a live rate.
type CurrencyLockService struct {
	quotes    QuoteRepository
	provider  rates.Provider
	txManager tx.Manager
	auditor   ChangeAuditor
}

// NewCurrencyLockService creates a currency lock service.
func NewCurrencyLockService(quotes QuoteRepository, provider rates.Provider, txManager tx.Manager) *CurrencyLockService {
	return &CurrencyLockService{
		quotes:    quotes,
		provider:  provider,
		txManager: txManager,
	}
}

// WithAuditor enables change-history recording for lock operations.
func (s *CurrencyLockService) WithAuditor(a ChangeAuditor) *CurrencyLockService {
	s.auditor = a
	return s
}

// LockQuote computes and persists the lock snapshot for a quote.
//
// An already-locked quote returns its stored snapshot untouched unless force
// is set; force recomputes and overwrites, intended for corrections before
// any downstream document exists. asOf pins the rate date; nil takes the
// latest published rate.
func (s *CurrencyLockService) LockQuote(ctx context.Context, quoteID id.ID, asOf *time.Time, force bool) (LockSnapshot, error) {
	var snap LockSnapshot

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		quote, err := s.quotes.GetForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}

		if quote.IsLocked() && !force {
			snap = quote.Snapshot()
			return nil
		}

		rate, err := s.resolveRate(ctx, quote, asOf)
		if err != nil {
			return err
		}

		net, _, gross := quote.OriginalAmounts()

		// VAT is derived from the rounded net and gross so the triple
		// always satisfies net + vat == gross.
		lockedNet := types.RoundMoney(net.Mul(rate.Rate))
		lockedGross := types.RoundMoney(gross.Mul(rate.Rate))
		lockedVAT := lockedGross.Sub(lockedNet)

		now := time.Now().UTC()
		quote.LockedAt = &now
		quote.LockedRate = rate.Rate
		quote.LockedRateDate = &rate.Date
		quote.LockedRateSource = rate.Source
		quote.LockedNet = lockedNet
		quote.LockedVAT = lockedVAT
		quote.LockedGross = lockedGross
		quote.Touch()

		if err := s.quotes.Update(ctx, quote); err != nil {
			return fmt.Errorf("persist lock snapshot: %w", err)
		}

		snap = quote.Snapshot()

		if s.auditor != nil {
			err := s.auditor.Record(ctx, "quote", quoteID, "lock", map[string]any{
				"rate":        rate.Rate.String(),
				"rate_source": rate.Source,
				"net":         lockedNet.String(),
				"vat":         lockedVAT.String(),
				"gross":       lockedGross.String(),
				"forced":      force,
			})
			if err != nil {
				return fmt.Errorf("audit lock: %w", err)
			}
		}

		logger.Info(ctx, "quote currency locked",
			"quote_id", quoteID,
			"currency", quote.Currency,
			"rate", rate.Rate.String(),
			"rate_source", rate.Source,
			"gross", lockedGross.String(),
			"forced", force,
		)
		return nil
	})
	if err != nil {
		return LockSnapshot{}, err
	}
	return snap, nil
}

// resolveRate picks the exchange rate: a recorded manual rate wins, then the
// provider; local-currency quotes lock at 1. No silent 1.0 for foreign
// currencies.
func (s *CurrencyLockService) resolveRate(ctx context.Context, quote *Quote, asOf *time.Time) (rates.Result, error) {
	if quote.ManualRate.IsPositive() {
		date := time.Now().UTC()
		if asOf != nil {
			date = *asOf
		}
		return rates.Result{
			Rate:   types.RoundRate(quote.ManualRate),
			Source: "manual",
			Date:   date,
		}, nil
	}

	if quote.Currency == rates.LocalCurrency {
		date := time.Now().UTC()
		if asOf != nil {
			date = *asOf
		}
		return rates.Result{
			Rate:   decimal.NewFromInt(1),
			Source: "local",
			Date:   date,
		}, nil
	}

	if s.provider == nil {
		return rates.Result{}, apperror.NewRateUnavailable(quote.Currency, dateString(asOf))
	}

	result, err := s.provider.Rate(ctx, quote.Currency, asOf)
	if err != nil {
		return rates.Result{}, err
	}
	result.Rate = types.RoundRate(result.Rate)
	return result, nil
}

func dateString(t *time.Time) string {
	if t == nil {
		return "latest"
	}
	return t.Format("2006-01-02")
}
