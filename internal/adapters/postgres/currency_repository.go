package postgres

import (
	"context"
	"errors"
	"fmt"

	"pricecore/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CurrencyRepository struct {
	pool *pgxpool.Pool
}

func (r *CurrencyRepository) Get(ctx context.Context, code string) (*domain.CurrencyConfig, error) {
	const q = `
        select code, is_active, manual_rate, allow_manual_rate, decimal_places, created_at, updated_at
        from currency_configs
        where code = $1;
    `

	var cfg domain.CurrencyConfig
	var manualRate decimal.NullDecimal
	if err := r.pool.QueryRow(ctx, q, code).Scan(
		&cfg.Code,
		&cfg.IsActive,
		&manualRate,
		&cfg.AllowManualRate,
		&cfg.DecimalPlaces,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, fmt.Errorf("failed to select currency config %q: %w", code, err)
	}
	if manualRate.Valid {
		cfg.ManualRate = &manualRate.Decimal
	}

	return &cfg, nil
}

func (r *CurrencyRepository) ListActive(ctx context.Context) ([]domain.CurrencyConfig, error) {
	const q = `
        select code, is_active, manual_rate, allow_manual_rate, decimal_places, created_at, updated_at
        from currency_configs
        where is_active;
    `

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query active currencies: %w", err)
	}
	defer rows.Close()

	configs := make([]domain.CurrencyConfig, 0, 32)
	for rows.Next() {
		var cfg domain.CurrencyConfig
		var manualRate decimal.NullDecimal
		if err = rows.Scan(
			&cfg.Code,
			&cfg.IsActive,
			&manualRate,
			&cfg.AllowManualRate,
			&cfg.DecimalPlaces,
			&cfg.CreatedAt,
			&cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan currency config: %w", err)
		}
		if manualRate.Valid {
			cfg.ManualRate = &manualRate.Decimal
		}
		configs = append(configs, cfg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency configs: %w", err)
	}
	return configs, nil
}

func (r *CurrencyRepository) Save(ctx context.Context, cfg domain.CurrencyConfig) error {
	const q = `
        insert into currency_configs (code, is_active, manual_rate, allow_manual_rate, decimal_places, created_at, updated_at)
        values ($1, $2, $3, $4, $5, now(), now())
        on conflict (code) do update set
            is_active = excluded.is_active,
            manual_rate = excluded.manual_rate,
            allow_manual_rate = excluded.allow_manual_rate,
            decimal_places = excluded.decimal_places,
            updated_at = now();
    `

	manualRate := decimal.NullDecimal{}
	if cfg.ManualRate != nil {
		manualRate = decimal.NullDecimal{Decimal: *cfg.ManualRate, Valid: true}
	}

	if _, err := r.pool.Exec(ctx, q, cfg.Code, cfg.IsActive, manualRate, cfg.AllowManualRate, cfg.DecimalPlaces); err != nil {
		return fmt.Errorf("failed to upsert currency config %q: %w", cfg.Code, err)
	}
	return nil
}

func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}
