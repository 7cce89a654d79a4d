package stacks

import (
	"context"
	"log/slog"
	"time"
)

// PriceCache is a TTL cache for the latest USD price table.
type PriceCache interface {
	GetPrices(ctx context.Context) (map[string]float64, bool, error)
	SetPrices(ctx context.Context, prices map[string]float64, ttl time.Duration) error
}

// CachedClient wraps a Client and serves LatestPrices from a cache when
// possible. Cache failures fall through to the API and are only logged;
// price staleness is bounded by the TTL.
type CachedClient struct {
	*Client
	cache PriceCache
	ttl   time.Duration
}

// NewCachedClient decorates a client with a price cache.
func NewCachedClient(client *Client, cache PriceCache, ttl time.Duration) *CachedClient {
	return &CachedClient{Client: client, cache: cache, ttl: ttl}
}

// LatestPrices serves the full price table from cache on a hit. Filtered
// lookups always go to the API since the cache stores the whole table.
func (c *CachedClient) LatestPrices(ctx context.Context, assets ...string) (map[string]float64, error) {
	if len(assets) > 0 {
		return c.Client.LatestPrices(ctx, assets...)
	}

	if prices, ok, err := c.cache.GetPrices(ctx); err != nil {
		slog.Warn("price cache read failed", "error", err)
	} else if ok {
		return prices, nil
	}

	prices, err := c.Client.LatestPrices(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetPrices(ctx, prices, c.ttl); err != nil {
		slog.Warn("price cache write failed", "error", err)
	}
	return prices, nil
}
