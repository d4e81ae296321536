package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyConfig is operator-owned per-currency configuration.
// ManualRate is meaningless unless AllowManualRate is true.
type CurrencyConfig struct {
	Code            string
	IsActive        bool
	ManualRate      *decimal.Decimal
	AllowManualRate bool
	// DecimalPlaces is the currency's minor-unit precision used for display
	// rounding. Zero value means "use the default" (2).
	DecimalPlaces int32

	CreatedAt time.Time
	UpdatedAt time.Time
}

const DefaultDecimalPlaces int32 = 2

func (c *CurrencyConfig) Places() int32 {
	if c == nil || c.DecimalPlaces <= 0 {
		return DefaultDecimalPlaces
	}
	return c.DecimalPlaces
}

// RateSnapshot is an immutable, timestamped conversion table for one base
// currency. Superseded by newer snapshots, never mutated.
type RateSnapshot struct {
	BaseCurrency string
	AsOfDate     time.Time
	Rates        map[string]decimal.Decimal
	FetchedAt    time.Time
	Provider     string
}

// RateSource says where a resolved rate came from.
type RateSource string

const (
	RateSourceManual   RateSource = "manual"
	RateSourceSnapshot RateSource = "snapshot"
)

// ResolvedRate is the result of a rate lookup: the factor, when it was
// sourced, and whether the backing snapshot is past its freshness window.
type ResolvedRate struct {
	Rate   decimal.Decimal
	AsOf   time.Time
	Source RateSource
	Stale  bool
}
