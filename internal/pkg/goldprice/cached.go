package goldprice

import (
	"context"
	"time"

	"github.com/aurumpay/goldlock/internal/pkg/cache"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
)

const priceCacheKey = "goldprice:usd_per_gram"

// DefaultCacheTTL bounds how stale a served quote can be.
const DefaultCacheTTL = 60 * time.Second

// Cached decorates an Oracle with a short-lived Redis cache so a burst of
// activations does not hammer the upstream feed. A stale cache is never
// served past the TTL; on cache miss the upstream quote wins.
type Cached struct {
	upstream Oracle
	ttl      time.Duration
}

// NewCached wraps an oracle with a Redis cache of the given TTL.
func NewCached(upstream Oracle, ttl time.Duration) *Cached {
	return &Cached{upstream: upstream, ttl: ttl}
}

func (c *Cached) CurrentPricePerGram(ctx context.Context) (decimal.Decimal, error) {
	if raw, err := cache.Get(priceCacheKey); err == nil {
		if price, perr := decimal.NewFromString(raw); perr == nil && price.Sign() > 0 {
			return price, nil
		}
	}

	price, err := c.upstream.CurrentPricePerGram(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if err := cache.Set(priceCacheKey, price.String(), c.ttl); err != nil {
		log.Warnf("[GoldPrice] failed to cache price: %v", err)
	}
	return price, nil
}
