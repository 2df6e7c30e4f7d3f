// Package currency converts submitted amounts into the canonical currency
// using the latest stored exchange rate.
package currency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expensemate/internal/models"
)

// Canonical is the currency every stored total is normalized to.
const Canonical = "USD"

// Supported lists the foreign currencies rates are collected for.
var Supported = []string{"EUR", "GBP", "JPY", "MXN", "CAD", "CNY"}

// ErrRateUnavailable indicates no exchange rate is stored for a currency.
// Users can switch currency or wait for the next rate fetch.
var ErrRateUnavailable = errors.New("exchange rate not available")

// RateLookup returns the most recent exchange rate for a currency, or nil
// when none is stored.
type RateLookup interface {
	LatestExchangeRate(ctx context.Context, currency string) (*models.ExchangeRate, error)
}

// Conversion is the result of normalizing a submitted amount.
type Conversion struct {
	// Total in the canonical currency.
	Total float64

	// Original is set only when the submitted currency was foreign.
	Original *Original
}

// Original is the submitted foreign amount and the rate used to convert it.
type Original struct {
	Currency string
	Total    float64
	Rate     float64
	Date     time.Time
}

// Apply writes the conversion onto e. A canonical conversion clears every
// original currency field.
func (c Conversion) Apply(e *models.Expense) {
	e.TotalCost = c.Total
	e.Currency = Canonical
	if c.Original == nil {
		e.ClearOriginalCurrency()
		return
	}
	currency := c.Original.Currency
	total := c.Original.Total
	rate := c.Original.Rate
	date := c.Original.Date
	e.OriginalCurrency = &currency
	e.OriginalTotalCost = &total
	e.ExchangeRate = &rate
	e.ConversionDate = &date
}

// Converter normalizes amounts to the canonical currency.
type Converter struct {
	rates RateLookup
	now   func() time.Time
}

// NewConverter creates a converter reading rates from lookup.
func NewConverter(lookup RateLookup) *Converter {
	return &Converter{rates: lookup, now: time.Now}
}

// Normalize upper-cases and trims a currency code. Empty means canonical.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Canonical
	}
	return code
}

// ToCanonical converts amount in currency code into the canonical currency.
func (c *Converter) ToCanonical(ctx context.Context, code string, amount float64) (Conversion, error) {
	code = Normalize(code)
	if code == Canonical {
		return Conversion{Total: amount}, nil
	}

	rate, err := c.LatestRate(ctx, code)
	if err != nil {
		return Conversion{}, err
	}

	// Rate is foreign units per 1 USD, so divide.
	total, _ := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(rate.Rate)).Float64()

	return Conversion{
		Total: total,
		Original: &Original{
			Currency: code,
			Total:    amount,
			Rate:     rate.Rate,
			Date:     rate.Date,
		},
	}, nil
}

// LatestRate returns the latest rate for code. The canonical currency always
// has rate 1 dated now.
func (c *Converter) LatestRate(ctx context.Context, code string) (*models.ExchangeRate, error) {
	code = Normalize(code)
	if code == Canonical {
		return &models.ExchangeRate{Currency: Canonical, Rate: 1, Date: c.now().UTC()}, nil
	}

	rate, err := c.rates.LatestExchangeRate(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up exchange rate for %s: %w", code, err)
	}
	if rate == nil || rate.Rate <= 0 {
		return nil, fmt.Errorf("%w for %s", ErrRateUnavailable, code)
	}
	return rate, nil
}

// SupportedCurrencies returns the canonical currency first, followed by every
// supported currency that has a stored rate, sorted by code.
func (c *Converter) SupportedCurrencies(ctx context.Context) ([]models.ExchangeRate, error) {
	var available []models.ExchangeRate
	for _, code := range Supported {
		rate, err := c.LatestRate(ctx, code)
		if errors.Is(err, ErrRateUnavailable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		available = append(available, *rate)
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].Currency < available[j].Currency
	})

	out := make([]models.ExchangeRate, 0, len(available)+1)
	out = append(out, models.ExchangeRate{Currency: Canonical, Rate: 1, Date: c.now().UTC()})
	return append(out, available...), nil
}
