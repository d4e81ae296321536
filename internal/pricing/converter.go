package pricing

import (
	"context"
	"errors"
	"fmt"

	"pricecore/internal/adapters"
	"pricecore/internal/domain"

	"github.com/shopspring/decimal"
)

// RateGetter is what the converter needs from the exchange-rate cache.
type RateGetter interface {
	GetRate(ctx context.Context, base, target string) (domain.ResolvedRate, error)
}

// Converter resolves a canonical-currency amount into a requested display
// currency. It never fabricates a rate: with no usable rate the caller gets
// ErrConversionUnavailable and decides how to fall back.
type Converter struct {
	canonical  string
	rates      RateGetter
	currencies adapters.CurrencyStore
}

func NewConverter(canonicalCurrency string, rates RateGetter, currencies adapters.CurrencyStore) *Converter {
	return &Converter{canonical: canonicalCurrency, rates: rates, currencies: currencies}
}

func (c *Converter) CanonicalCurrency() string { return c.canonical }

// Convert returns the display amount in targetCurrency, rounded to the
// currency's minor-unit precision with round-half-to-even so rounding bias
// stays near zero across a large catalog.
func (c *Converter) Convert(ctx context.Context, canonicalAmount decimal.Decimal, targetCurrency string) (decimal.Decimal, error) {
	if targetCurrency == c.canonical {
		return canonicalAmount, nil
	}

	places := domain.DefaultDecimalPlaces
	cfg, err := c.currencies.Get(ctx, targetCurrency)
	switch {
	case errors.Is(err, domain.ErrCurrencyNotFound):
		// no per-currency config, default precision applies
	case err != nil:
		return decimal.Zero, fmt.Errorf("failed to load currency config for %q: %w", targetCurrency, err)
	default:
		places = cfg.Places()
	}

	resolved, err := c.rates.GetRate(ctx, c.canonical, targetCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrRateUnavailable) {
			return decimal.Zero, fmt.Errorf("%w: %s->%s: %w", domain.ErrConversionUnavailable, c.canonical, targetCurrency, err)
		}
		return decimal.Zero, fmt.Errorf("rate lookup %s->%s: %w", c.canonical, targetCurrency, err)
	}

	return canonicalAmount.Mul(resolved.Rate).RoundBank(places), nil
}
