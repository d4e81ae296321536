package pricing

import (
	"fmt"

	"pricecore/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxDynamicMarkupPct bounds the engine-computed markup component.
var MaxDynamicMarkupPct = decimal.NewFromInt(50)

var hundred = decimal.NewFromInt(100)

// Derive computes the final price from a merchant price and the two markup
// components:
//
//	final = merchant * (1 + (base + dynamic) / 100)
//
// It rejects out-of-range inputs instead of clamping them. A negative markup
// or a non-positive merchant price reaching this point is an upstream bug,
// and silently fixing it here is how 100x prices went unnoticed before.
func Derive(merchantPrice, baseMarkupPct, dynamicMarkupPct decimal.Decimal) (decimal.Decimal, error) {
	if !merchantPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: merchant price %s must be > 0", domain.ErrInvalidInput, merchantPrice)
	}
	if baseMarkupPct.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: base markup %s%% is negative", domain.ErrInvalidInput, baseMarkupPct)
	}
	if dynamicMarkupPct.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: dynamic markup %s%% is negative", domain.ErrInvalidInput, dynamicMarkupPct)
	}
	if dynamicMarkupPct.GreaterThan(MaxDynamicMarkupPct) {
		return decimal.Zero, fmt.Errorf("%w: dynamic markup %s%% exceeds %s%%", domain.ErrInvalidInput, dynamicMarkupPct, MaxDynamicMarkupPct)
	}

	effective := baseMarkupPct.Add(dynamicMarkupPct)
	return merchantPrice.Mul(hundred.Add(effective)).Div(hundred), nil
}
