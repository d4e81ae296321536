package cache

import (
	"fmt"
	"time"

	"pricecore/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// resolvedRateTTL bounds how long a racily re-cached rate can outlive a
// snapshot swap. Invalidation on swap handles the common case; the TTL
// catches the reader that loaded the old snapshot and Set after the clean.
const resolvedRateTTL = time.Minute

// RistrettoRateCache is a read-through cache of snapshot-resolved
// (base,target) rates. Manual overrides never enter it.
type RistrettoRateCache struct {
	cache *ristretto.Cache
}

func NewRateCache(maxItems int64) (*RistrettoRateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create resolved rate cache failed: %w", err)
	}
	return &RistrettoRateCache{cache: c}, nil
}

func (c *RistrettoRateCache) Get(base, target string) (domain.ResolvedRate, bool) {
	if v, ok := c.cache.Get(toKey(base, target)); ok {
		r, ok := v.(domain.ResolvedRate)
		return r, ok
	}
	return domain.ResolvedRate{}, false
}

func (c *RistrettoRateCache) Set(base, target string, rate domain.ResolvedRate) {
	c.cache.SetWithTTL(toKey(base, target), rate, 1, resolvedRateTTL)
}

func (c *RistrettoRateCache) CleanBase(base string, targets []string) {
	for _, target := range targets {
		c.cache.Del(toKey(base, target))
	}
}

func (c *RistrettoRateCache) Close() { c.cache.Close() }

func toKey(base, target string) string { return base + ":" + target }
