package cache

import (
	"testing"
	"time"

	"pricecore/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func resolved(rate string) domain.ResolvedRate {
	return domain.ResolvedRate{
		Rate:   decimal.RequireFromString(rate),
		AsOf:   time.Now(),
		Source: domain.RateSourceSnapshot,
	}
}

func TestRateCache_SetAndGet(t *testing.T) {
	c, err := NewRateCache(128)
	require.NoError(t, err)
	defer c.Close()

	want := resolved("48.5")
	c.Set("USD", "EGP", want)
	c.cache.Wait()

	got, ok := c.Get("USD", "EGP")
	require.True(t, ok)
	require.True(t, got.Rate.Equal(want.Rate))
	require.Equal(t, domain.RateSourceSnapshot, got.Source)
}

func TestRateCache_GetMissWhenEmpty(t *testing.T) {
	c, err := NewRateCache(64)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Get("EUR", "USD")
	require.False(t, ok)
	require.True(t, got.Rate.IsZero())
}

func TestRateCache_CleanBaseEvictsOnlySpecifiedTargets(t *testing.T) {
	c, err := NewRateCache(256)
	require.NoError(t, err)
	defer c.Close()

	c.Set("USD", "EUR", resolved("0.92"))
	c.Set("USD", "JPY", resolved("150"))
	keep := resolved("48.5")
	c.Set("USD", "EGP", keep)
	c.cache.Wait()

	c.CleanBase("USD", []string{"EUR", "JPY"})

	_, ok := c.Get("USD", "EUR")
	require.False(t, ok)
	_, ok = c.Get("USD", "JPY")
	require.False(t, ok)

	got, ok := c.Get("USD", "EGP")
	require.True(t, ok)
	require.True(t, got.Rate.Equal(keep.Rate))
}

func TestRateCache_BasesDoNotCollide(t *testing.T) {
	c, err := NewRateCache(128)
	require.NoError(t, err)
	defer c.Close()

	c.Set("USD", "EUR", resolved("0.92"))
	c.Set("EUR", "USD", resolved("1.08"))
	c.cache.Wait()

	c.CleanBase("USD", []string{"EUR"})

	_, ok := c.Get("USD", "EUR")
	require.False(t, ok)

	got, ok := c.Get("EUR", "USD")
	require.True(t, ok)
	require.Equal(t, "1.08", got.Rate.String())
}
