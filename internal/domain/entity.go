package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedEntity is a catalog item or one of its variants. Prices are stored in
// the canonical currency; display conversion happens on the read path.
//
// Invariant: FinalPrice == MerchantPrice * (1 + (BaseMarkupPct+DynamicMarkupPct)/100).
// A root and its variants each hold the full invariant independently - price
// is never inherited between them.
type PricedEntity struct {
	ID         uuid.UUID
	CategoryID string

	MerchantPrice    decimal.Decimal
	BaseMarkupPct    decimal.Decimal
	DynamicMarkupPct decimal.Decimal
	FinalPrice       decimal.Decimal

	Variants []PricedEntity

	UpdatedAt time.Time
}

// PriceFields is the only write surface the engine uses against the catalog
// store. No other writer may set FinalPrice.
type PriceFields struct {
	MerchantPrice    decimal.Decimal
	BaseMarkupPct    decimal.Decimal
	DynamicMarkupPct decimal.Decimal
	FinalPrice       decimal.Decimal
}

func (e *PricedEntity) Fields() PriceFields {
	return PriceFields{
		MerchantPrice:    e.MerchantPrice,
		BaseMarkupPct:    e.BaseMarkupPct,
		DynamicMarkupPct: e.DynamicMarkupPct,
		FinalPrice:       e.FinalPrice,
	}
}
