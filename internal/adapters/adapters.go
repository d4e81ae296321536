package adapters

import (
	"context"
	"time"

	"pricecore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateProvider fetches a conversion table from the external rate service.
// Treated as untrusted and potentially slow; callers always pass a bounded
// context.
type RateProvider interface {
	Fetch(ctx context.Context, base string) (map[string]decimal.Decimal, time.Time, error)
	Name() string
}

// CatalogStore is the catalog collaborator. The engine only ever reads and
// writes price fields; variant prices are addressed by the variant's own id.
type CatalogStore interface {
	ListActive(ctx context.Context) ([]domain.PricedEntity, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.PricedEntity, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, fields domain.PriceFields) error
}

type CurrencyStore interface {
	Get(ctx context.Context, code string) (*domain.CurrencyConfig, error)
	ListActive(ctx context.Context) ([]domain.CurrencyConfig, error)
	Save(ctx context.Context, cfg domain.CurrencyConfig) error
}

// SnapshotRepository persists immutable rate snapshots. Newer snapshots
// supersede older ones; nothing is deleted.
type SnapshotRepository interface {
	Save(ctx context.Context, snap *domain.RateSnapshot) error
	LatestByBase(ctx context.Context, base string) (*domain.RateSnapshot, error)
}

// DemandSignalSource supplies the demand signal consumed by the markup
// engine. ErrSignalUnknown means "no signal", which the engine treats as zero.
type DemandSignalSource interface {
	Signal(ctx context.Context, entityID uuid.UUID) (decimal.Decimal, error)
}

// ResolvedRateCache is a read-through cache of resolved (base,target) rates
// sitting in front of the current snapshot. It only ever holds
// snapshot-sourced rates; manual overrides bypass it.
type ResolvedRateCache interface {
	Get(base, target string) (domain.ResolvedRate, bool)
	Set(base, target string, rate domain.ResolvedRate)
	CleanBase(base string, targets []string)
}

// ReportSink receives audit reports and repair records for external
// display/storage.
type ReportSink interface {
	SaveReport(ctx context.Context, report *domain.AuditReport) error
	SaveRepairs(ctx context.Context, records []domain.RepairRecord) error
}
