package audit

import (
	"context"
	"fmt"
	"time"

	"pricecore/internal/domain"
	"pricecore/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Repair rescales the merchant price of exactly the given entities (and each
// of their variants) by factor and re-derives the final price from current
// markups. It refuses to run without an explicit id set and a positive
// factor - there is no "fix everything" mode, a wrong automatic correction
// is as dangerous as the original corruption.
//
// Entities are repaired in order; the first failure stops the run and the
// records of the entities already repaired are returned alongside the error.
func (a *Auditor) Repair(ctx context.Context, entityIDs []uuid.UUID, factor decimal.Decimal) ([]domain.RepairRecord, error) {
	if len(entityIDs) == 0 {
		return nil, fmt.Errorf("%w: empty entity id set", domain.ErrRepairRequiresExplicitScope)
	}
	if !factor.IsPositive() {
		return nil, fmt.Errorf("%w: factor %s must be > 0", domain.ErrRepairRequiresExplicitScope, factor)
	}

	records := make([]domain.RepairRecord, 0, len(entityIDs))
	for _, id := range entityIDs {
		entity, err := a.catalog.Get(ctx, id)
		if err != nil {
			return records, fmt.Errorf("repair aborted at entity %s: %w", id, err)
		}

		rec, err := a.repairOne(ctx, entity.ID, entity.ID, entity.Fields(), factor)
		if err != nil {
			return records, err
		}
		records = append(records, rec)

		for _, variant := range entity.Variants {
			vrec, err := a.repairOne(ctx, variant.ID, entity.ID, variant.Fields(), factor)
			if err != nil {
				return records, err
			}
			records = append(records, vrec)
		}
	}

	if a.sink != nil {
		if err := a.sink.SaveRepairs(ctx, records); err != nil {
			logrus.WithError(err).Warn("Failed to hand off repair records")
		}
	}
	if a.metrics != nil {
		a.metrics.RepairsTotal.Add(float64(len(records)))
	}
	return records, nil
}

func (a *Auditor) repairOne(ctx context.Context, id, rootID uuid.UUID, before domain.PriceFields, factor decimal.Decimal) (domain.RepairRecord, error) {
	after := before
	after.MerchantPrice = before.MerchantPrice.Mul(factor)

	// Re-derive through the calculator so a factor that would produce a
	// non-positive price is rejected rather than written.
	finalPrice, err := pricing.Derive(after.MerchantPrice, after.BaseMarkupPct, after.DynamicMarkupPct)
	if err != nil {
		return domain.RepairRecord{}, fmt.Errorf("repair of entity %s rejected: %w", id, err)
	}
	after.FinalPrice = finalPrice

	if err := a.catalog.UpdatePrice(ctx, id, after); err != nil {
		return domain.RepairRecord{}, fmt.Errorf("repair write-back for entity %s: %w", id, err)
	}

	rec := domain.RepairRecord{
		EntityID:   id,
		RootID:     rootID,
		Factor:     factor,
		Before:     before,
		After:      after,
		RepairedAt: time.Now(),
	}

	logrus.WithFields(logrus.Fields{
		"entityID":            id,
		"factor":              factor.String(),
		"beforeMerchantPrice": before.MerchantPrice.String(),
		"afterMerchantPrice":  after.MerchantPrice.String(),
		"beforeFinalPrice":    before.FinalPrice.String(),
		"afterFinalPrice":     after.FinalPrice.String(),
	}).Info("Priced entity rescaled by scoped repair")

	return rec, nil
}
