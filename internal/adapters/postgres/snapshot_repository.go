package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pricecore/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SnapshotRepository stores immutable exchange-rate snapshots. Rows are only
// ever inserted; newer snapshots supersede older ones by fetched_at.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func (r *SnapshotRepository) Save(ctx context.Context, snap *domain.RateSnapshot) error {
	const q = `
        insert into rate_snapshots (base_currency, as_of_date, rates, fetched_at, provider)
        values ($1, $2, $3, $4, $5);
    `

	ratesJSON, err := json.Marshal(snap.Rates)
	if err != nil {
		return fmt.Errorf("failed to marshal rates for base %q: %w", snap.BaseCurrency, err)
	}

	if _, err = r.pool.Exec(ctx, q, snap.BaseCurrency, snap.AsOfDate, ratesJSON, snap.FetchedAt, snap.Provider); err != nil {
		return fmt.Errorf("failed to insert rate snapshot for base %q: %w", snap.BaseCurrency, err)
	}
	return nil
}

func (r *SnapshotRepository) LatestByBase(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	const q = `
        select base_currency, as_of_date, rates, fetched_at, provider
        from rate_snapshots
        where base_currency = $1
        order by fetched_at desc
        limit 1;
    `

	var snap domain.RateSnapshot
	var ratesJSON []byte
	if err := r.pool.QueryRow(ctx, q, base).Scan(
		&snap.BaseCurrency,
		&snap.AsOfDate,
		&ratesJSON,
		&snap.FetchedAt,
		&snap.Provider,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no persisted snapshot for base %q", domain.ErrRateUnavailable, base)
		}
		return nil, fmt.Errorf("failed to select latest snapshot for base %q: %w", base, err)
	}

	snap.Rates = make(map[string]decimal.Decimal)
	if err := json.Unmarshal(ratesJSON, &snap.Rates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rates for base %q: %w", base, err)
	}

	return &snap, nil
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}
