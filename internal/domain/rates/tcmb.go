package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/types"
)

// Central bank XML endpoints. Daily files exist only for business days;
// a missing dated file surfaces as RateUnavailable, not as a fallback.
const (
	tcmbTodayURL = "https://www.tcmb.gov.tr/kurlar/today.xml"
	tcmbDatedURL = "https://www.tcmb.gov.tr/kurlar/%s/%s.xml" // yyyymm / ddmmyyyy
)

// TCMBProvider fetches TRY exchange rates from the central bank XML feed.
type TCMBProvider struct {
	client  *http.Client
	baseURL string // test override; empty means production URLs
}

// NewTCMBProvider creates a provider with a bounded request timeout.
func NewTCMBProvider() *TCMBProvider {
	return &TCMBProvider{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTCMBProviderWithClient allows injecting the HTTP client and base URL.
func NewTCMBProviderWithClient(client *http.Client, baseURL string) *TCMBProvider {
	return &TCMBProvider{client: client, baseURL: baseURL}
}

type tcmbDocument struct {
	XMLName    xml.Name       `xml:"Tarih_Date"`
	Currencies []tcmbCurrency `xml:"Currency"`
}

type tcmbCurrency struct {
	Code            string `xml:"CurrencyCode,attr"`
	ForexSelling    string `xml:"ForexSelling"`
	BanknoteSelling string `xml:"BanknoteSelling"`
}

// Rate implements Provider.
func (p *TCMBProvider) Rate(ctx context.Context, currency string, date *time.Time) (Result, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Result{}, apperror.NewValidation("currency code is required")
	}
	if currency == LocalCurrency {
		return Result{
			Rate:   decimal.NewFromInt(1),
			Source: "local",
			Date:   time.Now().UTC(),
		}, nil
	}

	url := p.urlFor(date)
	doc, err := p.fetch(ctx, url)
	if err != nil {
		return Result{}, apperror.NewRateUnavailable(currency, dateString(date)).WithCause(err)
	}

	for _, cur := range doc.Currencies {
		if !strings.EqualFold(strings.TrimSpace(cur.Code), currency) {
			continue
		}
		// ForexSelling preferred; some currencies only publish banknote rates.
		raw := strings.TrimSpace(cur.ForexSelling)
		if raw == "" {
			raw = strings.TrimSpace(cur.BanknoteSelling)
		}
		if raw == "" {
			return Result{}, apperror.NewRateUnavailable(currency, dateString(date))
		}
		rate, err := parseRate(raw)
		if err != nil {
			return Result{}, apperror.NewRateUnavailable(currency, dateString(date)).WithCause(err)
		}
		res := Result{Rate: types.RoundRate(rate), Source: "TCMB", Date: time.Now().UTC()}
		if date != nil {
			res.Source = fmt.Sprintf("TCMB %s", date.Format("2006-01-02"))
			res.Date = *date
		}
		return res, nil
	}

	return Result{}, apperror.NewRateUnavailable(currency, dateString(date))
}

func (p *TCMBProvider) urlFor(date *time.Time) string {
	if p.baseURL != "" {
		if date == nil {
			return p.baseURL + "/today.xml"
		}
		return fmt.Sprintf("%s/%s/%s.xml", p.baseURL, date.Format("200601"), date.Format("02012006"))
	}
	if date == nil {
		return tcmbTodayURL
	}
	return fmt.Sprintf(tcmbDatedURL, date.Format("200601"), date.Format("02012006"))
}

func (p *TCMBProvider) fetch(ctx context.Context, url string) (*tcmbDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read rates: %w", err)
	}

	var doc tcmbDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse rates xml: %w", err)
	}
	return &doc, nil
}

// parseRate handles the feed's comma decimal separator.
func parseRate(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return decimal.NewFromString(s)
}

func dateString(date *time.Time) string {
	if date == nil {
		return "latest"
	}
	return date.Format("2006-01-02")
}

var _ Provider = (*TCMBProvider)(nil)
