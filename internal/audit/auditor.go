package audit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pricecore/internal/adapters"
	"pricecore/internal/domain"
	"pricecore/internal/platform/metrics"
	"pricecore/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// categoryAnomalyLog10 is the log10 distance from the category median price
// at which an entity counts as magnitude-anomalous. Two orders of magnitude
// catches the historical 100x scale corruption with margin.
const categoryAnomalyLog10 = 2.0

// minCategorySample is the smallest category for which a median is
// meaningful; smaller categories skip the relative check.
const minCategorySample = 3

// Thresholds are the absolute magnitude bucket bounds for canonical-currency
// final prices.
type Thresholds struct {
	Low     decimal.Decimal
	High    decimal.Decimal
	Extreme decimal.Decimal
}

// Auditor batch-scans stored canonical prices for scale corruption and
// exposes the explicitly-scoped repair operation. It never rescales anything
// on its own.
type Auditor struct {
	catalog    adapters.CatalogStore
	sink       adapters.ReportSink
	metrics    *metrics.Metrics
	thresholds Thresholds
	epsilon    decimal.Decimal
}

func NewAuditor(catalog adapters.CatalogStore, sink adapters.ReportSink, m *metrics.Metrics, thresholds Thresholds, epsilon decimal.Decimal) *Auditor {
	if epsilon.IsZero() {
		epsilon = decimal.New(1, -6)
	}
	return &Auditor{catalog: catalog, sink: sink, metrics: m, thresholds: thresholds, epsilon: epsilon}
}

// ScanAll audits every active priced entity.
func (a *Auditor) ScanAll(ctx context.Context) (*domain.AuditReport, error) {
	entities, err := a.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities for audit: %w", err)
	}
	return a.Scan(ctx, entities)
}

// Scan buckets each entity's final price into magnitude classes and flags
// entities whose stored price disagrees with re-deriving it, or whose
// magnitude is far outside their category's typical range.
func (a *Auditor) Scan(ctx context.Context, entities []domain.PricedEntity) (*domain.AuditReport, error) {
	report := &domain.AuditReport{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}

	items := flattenWithRoots(entities)
	medians := categoryMedians(items)

	for _, it := range items {
		report.Scanned++
		finding := a.check(it, medians)
		if finding != nil {
			report.Findings = append(report.Findings, *finding)
			if a.metrics != nil {
				for _, reason := range finding.Reasons {
					a.metrics.AuditFindingsTotal.WithLabelValues(reason).Inc()
				}
			}
		}
	}

	report.Flagged = len(report.Findings)
	report.FinishedAt = time.Now()

	if a.sink != nil {
		if err := a.sink.SaveReport(ctx, report); err != nil {
			logrus.WithError(err).WithField("reportID", report.ID).Warn("Failed to hand off audit report")
		}
	}

	logrus.Infof("Price audit %s finished: %d scanned, %d flagged", report.ID, report.Scanned, report.Flagged)
	return report, nil
}

type scanItem struct {
	entity domain.PricedEntity
	rootID uuid.UUID
}

func flattenWithRoots(entities []domain.PricedEntity) []scanItem {
	items := make([]scanItem, 0, len(entities))
	for _, e := range entities {
		variants := e.Variants
		root := e
		root.Variants = nil
		items = append(items, scanItem{entity: root, rootID: e.ID})
		for _, v := range variants {
			items = append(items, scanItem{entity: v, rootID: e.ID})
		}
	}
	return items
}

func (a *Auditor) check(it scanItem, medians map[string]decimal.Decimal) *domain.AuditFinding {
	e := it.entity
	var reasons []string
	var expected *decimal.Decimal

	derived, err := pricing.Derive(e.MerchantPrice, e.BaseMarkupPct, e.DynamicMarkupPct)
	if err != nil {
		// Inputs the calculator would reject are themselves corruption.
		reasons = append(reasons, domain.FindingInvariantMismatch)
	} else if derived.Sub(e.FinalPrice).Abs().GreaterThan(a.epsilon) {
		reasons = append(reasons, domain.FindingInvariantMismatch)
		expected = &derived
	}

	class := a.classify(e.FinalPrice)
	switch class {
	case domain.MagnitudeLow:
		reasons = append(reasons, domain.FindingMagnitudeLow)
	case domain.MagnitudeHigh:
		reasons = append(reasons, domain.FindingMagnitudeHigh)
	case domain.MagnitudeExtreme:
		reasons = append(reasons, domain.FindingMagnitudeExtreme)
	}

	if med, ok := medians[e.CategoryID]; ok && med.IsPositive() && e.FinalPrice.IsPositive() {
		dist := math.Abs(math.Log10(e.FinalPrice.InexactFloat64()) - math.Log10(med.InexactFloat64()))
		if dist >= categoryAnomalyLog10 {
			reasons = append(reasons, domain.FindingCategoryAnomaly)
		}
	}

	if len(reasons) == 0 {
		return nil
	}
	return &domain.AuditFinding{
		EntityID:           e.ID,
		RootID:             it.rootID,
		CategoryID:         e.CategoryID,
		FinalPrice:         e.FinalPrice,
		Class:              class,
		Reasons:            reasons,
		ExpectedFinalPrice: expected,
	}
}

func (a *Auditor) classify(price decimal.Decimal) domain.MagnitudeClass {
	switch {
	case a.thresholds.Extreme.IsPositive() && price.GreaterThanOrEqual(a.thresholds.Extreme):
		return domain.MagnitudeExtreme
	case a.thresholds.High.IsPositive() && price.GreaterThanOrEqual(a.thresholds.High):
		return domain.MagnitudeHigh
	case price.LessThan(a.thresholds.Low):
		return domain.MagnitudeLow
	default:
		return domain.MagnitudeNormal
	}
}

// categoryMedians computes the median final price per category across all
// scanned items, for the relative-range check.
func categoryMedians(items []scanItem) map[string]decimal.Decimal {
	byCategory := make(map[string][]decimal.Decimal)
	for _, it := range items {
		if it.entity.CategoryID == "" {
			continue
		}
		byCategory[it.entity.CategoryID] = append(byCategory[it.entity.CategoryID], it.entity.FinalPrice)
	}

	medians := make(map[string]decimal.Decimal, len(byCategory))
	for cat, prices := range byCategory {
		if len(prices) < minCategorySample {
			continue
		}
		sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
		mid := len(prices) / 2
		if len(prices)%2 == 1 {
			medians[cat] = prices[mid]
		} else {
			medians[cat] = prices[mid-1].Add(prices[mid]).Div(decimal.NewFromInt(2))
		}
	}
	return medians
}
