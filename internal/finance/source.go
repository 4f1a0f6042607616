package finance

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PriceSource supplies raw closing prices for symbols between start and end.
type PriceSource interface {
	Name() string
	Fetch(ctx context.Context, symbols []string, start, end time.Time, interval Interval) ([]AssetData, error)
}

// CachedSource memoizes another source by (symbols, start, end, interval).
type CachedSource struct {
	src   PriceSource
	cache *ttlCache[[]AssetData]
}

func NewCachedSource(src PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{src: src, cache: newTTLCache[[]AssetData](ttl)}
}

func (c *CachedSource) Name() string { return c.src.Name() }

func (c *CachedSource) Fetch(ctx context.Context, symbols []string, start, end time.Time, interval Interval) ([]AssetData, error) {
	key := fetchKey(symbols, start, end, interval)
	if assets, ok := c.cache.get(key); ok {
		return copyAssets(assets), nil
	}
	assets, err := c.src.Fetch(ctx, symbols, start, end, interval)
	if err != nil {
		return nil, err
	}
	c.cache.set(key, copyAssets(assets))
	return assets, nil
}

func fetchKey(symbols []string, start, end time.Time, interval Interval) string {
	return fmt.Sprintf("%s|%s|%s|%s", strings.Join(symbols, ","), start.Format("2006-01-02"), end.Format("2006-01-02"), interval)
}

func copyAssets(in []AssetData) []AssetData {
	out := make([]AssetData, len(in))
	for i, a := range in {
		out[i] = AssetData{
			Symbol:     a.Symbol,
			Timestamps: append([]int64(nil), a.Timestamps...),
			Prices:     append([]float64(nil), a.Prices...),
		}
	}
	return out
}
