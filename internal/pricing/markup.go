package pricing

import (
	"context"
	"errors"
	"fmt"

	"pricecore/internal/adapters"
	"pricecore/internal/domain"

	"github.com/shopspring/decimal"
)

// DemandPolicy turns a raw demand signal (view/purchase velocity or whatever
// the signal source measures) into a dynamic markup percentage. The policy is
// replaceable; the engine owns the clamping, not the policy.
type DemandPolicy interface {
	DynamicMarkup(signal decimal.Decimal) decimal.Decimal
}

// LinearDemandPolicy maps signal/divisor straight to percent.
type LinearDemandPolicy struct {
	Divisor decimal.Decimal
}

func (p LinearDemandPolicy) DynamicMarkup(signal decimal.Decimal) decimal.Decimal {
	if !p.Divisor.IsPositive() {
		return decimal.Zero
	}
	return signal.Div(p.Divisor)
}

// MarkupEngine recomputes the effective markup for priced entities. It writes
// only DynamicMarkupPct on the entity; final-price derivation stays with
// Derive so there is a single place prices are produced.
type MarkupEngine struct {
	signals adapters.DemandSignalSource
	policy  DemandPolicy
}

func NewMarkupEngine(signals adapters.DemandSignalSource, policy DemandPolicy) *MarkupEngine {
	if policy == nil {
		policy = LinearDemandPolicy{Divisor: hundred}
	}
	return &MarkupEngine{signals: signals, policy: policy}
}

// RecomputeMarkup resolves the entity's demand signal, updates
// entity.DynamicMarkupPct and returns the effective markup (base + dynamic).
// An unknown signal counts as zero; any other signal failure is returned and
// the entity keeps its last known markup.
func (e *MarkupEngine) RecomputeMarkup(ctx context.Context, entity *domain.PricedEntity) (decimal.Decimal, error) {
	signal, err := e.signals.Signal(ctx, entity.ID)
	switch {
	case errors.Is(err, domain.ErrSignalUnknown):
		signal = decimal.Zero
	case err != nil:
		return decimal.Zero, fmt.Errorf("%w: signal for entity %s: %w", domain.ErrEntityRecomputeFailed, entity.ID, err)
	}

	entity.DynamicMarkupPct = clampDynamicMarkup(e.policy.DynamicMarkup(signal))
	return entity.BaseMarkupPct.Add(entity.DynamicMarkupPct), nil
}

// clampDynamicMarkup holds the [0, 50] contract regardless of what the policy
// or the signal produced.
func clampDynamicMarkup(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(MaxDynamicMarkupPct) {
		return MaxDynamicMarkupPct
	}
	return pct
}
