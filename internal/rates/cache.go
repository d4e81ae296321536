package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pricecore/internal/adapters"
	"pricecore/internal/domain"
	"pricecore/internal/platform/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultHistoryDepth = 5

// Cache holds the latest fetched conversion table per base currency and
// serves rate lookups with manual-override precedence.
//
// Reads never block on a refresh: an in-flight refresh builds a new snapshot
// and swaps the current pointer only once the fetch completed, so the hot
// path always sees a complete table. The only mutual exclusion is the
// per-base single-flight around the provider fetch.
type Cache struct {
	provider   adapters.RateProvider
	currencies adapters.CurrencyStore
	snapshots  adapters.SnapshotRepository
	resolved   adapters.ResolvedRateCache
	metrics    *metrics.Metrics

	staleAfter   time.Duration
	historyDepth int

	group singleflight.Group

	mu    sync.RWMutex
	slots map[string]*slot
}

// slot is the per-base snapshot holder: a lock-free current pointer plus a
// short superseded-snapshot history for staleness diagnostics.
type slot struct {
	current atomic.Pointer[domain.RateSnapshot]

	histMu  sync.Mutex
	history []*domain.RateSnapshot
}

type Option func(*Cache)

func WithResolvedRateCache(c adapters.ResolvedRateCache) Option {
	return func(cache *Cache) { cache.resolved = c }
}

func WithSnapshotRepository(r adapters.SnapshotRepository) Option {
	return func(cache *Cache) { cache.snapshots = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cache *Cache) { cache.metrics = m }
}

func WithHistoryDepth(n int) Option {
	return func(cache *Cache) {
		if n > 0 {
			cache.historyDepth = n
		}
	}
}

func NewCache(provider adapters.RateProvider, currencies adapters.CurrencyStore, staleAfter time.Duration, opts ...Option) *Cache {
	c := &Cache{
		provider:     provider,
		currencies:   currencies,
		staleAfter:   staleAfter,
		historyDepth: defaultHistoryDepth,
		slots:        make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRate resolves base->target. Precedence, highest first:
//  1. manual override on the target's currency config (AllowManualRate set
//     and a manual rate present),
//  2. the most recent snapshot for base that contains target,
//  3. ErrRateUnavailable.
func (c *Cache) GetRate(ctx context.Context, base, target string) (domain.ResolvedRate, error) {
	cfg, err := c.currencies.Get(ctx, target)
	switch {
	case errors.Is(err, domain.ErrCurrencyNotFound):
		// no config, no override
	case err != nil:
		// Config store trouble must not take the read path down; the
		// override check is skipped and the snapshot still serves.
		logrus.WithError(err).WithField("currency", target).Warn("Currency config lookup failed, serving snapshot rate")
	default:
		if cfg.AllowManualRate && cfg.ManualRate != nil {
			return domain.ResolvedRate{Rate: *cfg.ManualRate, AsOf: time.Now(), Source: domain.RateSourceManual}, nil
		}
	}

	if c.resolved != nil {
		if r, ok := c.resolved.Get(base, target); ok {
			r.Stale = c.isStale(r.AsOf)
			return r, nil
		}
	}

	snap := c.currentSnapshot(base)
	if snap == nil {
		return domain.ResolvedRate{}, fmt.Errorf("%w: no snapshot for base %q", domain.ErrRateUnavailable, base)
	}
	rate, ok := snap.Rates[target]
	if !ok {
		return domain.ResolvedRate{}, fmt.Errorf("%w: snapshot for %q has no rate for %q", domain.ErrRateUnavailable, base, target)
	}

	r := domain.ResolvedRate{Rate: rate, AsOf: snap.FetchedAt, Source: domain.RateSourceSnapshot, Stale: c.isStale(snap.FetchedAt)}
	if c.resolved != nil {
		c.resolved.Set(base, target, r)
	}
	return r, nil
}

// Refresh fetches a new snapshot for base. Concurrent refreshes for the same
// base collapse into one provider call and all callers observe that call's
// snapshot. On provider failure the previous snapshot keeps serving and the
// failure surfaces only through the returned error and the staleness metrics.
func (c *Cache) Refresh(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	v, err, _ := c.group.Do(base, func() (any, error) {
		return c.doRefresh(ctx, base)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.RateSnapshot), nil
}

func (c *Cache) doRefresh(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	if c.metrics != nil {
		c.metrics.RefreshTotal.WithLabelValues(base).Inc()
	}

	ratesMap, asOf, err := c.provider.Fetch(ctx, base)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RefreshFailuresTotal.WithLabelValues(base).Inc()
			if cur := c.currentSnapshot(base); cur != nil {
				c.metrics.SnapshotAgeSeconds.WithLabelValues(base).Set(time.Since(cur.FetchedAt).Seconds())
			}
		}
		return nil, fmt.Errorf("%w: base %q: %w", domain.ErrProviderFetchFailed, base, err)
	}

	snap := &domain.RateSnapshot{
		BaseCurrency: base,
		AsOfDate:     asOf,
		Rates:        ratesMap,
		FetchedAt:    time.Now(),
		Provider:     c.provider.Name(),
	}

	if c.snapshots != nil {
		if saveErr := c.snapshots.Save(ctx, snap); saveErr != nil {
			// The in-memory snapshot is authoritative for serving; a failed
			// persist only loses warm-start history.
			logrus.WithError(saveErr).WithField("base", base).Warn("Failed to persist rate snapshot")
		}
	}

	c.install(snap)
	return snap, nil
}

// Warm loads the newest persisted snapshot for each base so the cache serves
// immediately after a restart, before the first refresh lands.
func (c *Cache) Warm(ctx context.Context, bases []string) error {
	if c.snapshots == nil {
		return nil
	}
	for _, base := range bases {
		snap, err := c.snapshots.LatestByBase(ctx, base)
		if errors.Is(err, domain.ErrRateUnavailable) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to warm snapshot for base %q: %w", base, err)
		}
		c.install(snap)
	}
	return nil
}

// History returns the superseded snapshots kept for base, newest first.
func (c *Cache) History(base string) []*domain.RateSnapshot {
	c.mu.RLock()
	s, ok := c.slots[base]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	s.histMu.Lock()
	defer s.histMu.Unlock()
	out := make([]*domain.RateSnapshot, len(s.history))
	copy(out, s.history)
	return out
}

func (c *Cache) currentSnapshot(base string) *domain.RateSnapshot {
	c.mu.RLock()
	s, ok := c.slots[base]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.current.Load()
}

// install atomically publishes snap as the current snapshot for its base and
// pushes the superseded one onto the history ring.
func (c *Cache) install(snap *domain.RateSnapshot) {
	c.mu.Lock()
	s, ok := c.slots[snap.BaseCurrency]
	if !ok {
		s = &slot{}
		c.slots[snap.BaseCurrency] = s
	}
	c.mu.Unlock()

	old := s.current.Swap(snap)

	if old != nil {
		s.histMu.Lock()
		s.history = append([]*domain.RateSnapshot{old}, s.history...)
		if len(s.history) > c.historyDepth {
			s.history = s.history[:c.historyDepth]
		}
		s.histMu.Unlock()
	}

	if c.resolved != nil {
		targets := make([]string, 0, len(snap.Rates))
		for code := range snap.Rates {
			targets = append(targets, code)
		}
		if old != nil {
			for code := range old.Rates {
				if _, stillThere := snap.Rates[code]; !stillThere {
					targets = append(targets, code)
				}
			}
		}
		c.resolved.CleanBase(snap.BaseCurrency, targets)
	}

	if c.metrics != nil {
		c.metrics.SnapshotAgeSeconds.WithLabelValues(snap.BaseCurrency).Set(time.Since(snap.FetchedAt).Seconds())
	}
}

func (c *Cache) isStale(asOf time.Time) bool {
	return c.staleAfter > 0 && time.Since(asOf) > c.staleAfter
}
