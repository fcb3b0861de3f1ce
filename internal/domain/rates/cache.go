package rates

import (
	"context"
	"sync"
	"time"
)

// CachingProvider memoizes rate lookups per (currency, date). Historical
// rates never change, so they cache forever; "latest" entries expire after
// the configured TTL.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cachedRate
}

type cachedRate struct {
	result    Result
	fetchedAt time.Time
	pinned    bool // dated lookups never expire
}

// NewCachingProvider wraps a provider with an in-process cache.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cachedRate),
	}
}

// Rate implements Provider.
func (c *CachingProvider) Rate(ctx context.Context, currency string, date *time.Time) (Result, error) {
	key := cacheKey(currency, date)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if ok && (entry.pinned || time.Since(entry.fetchedAt) < c.ttl) {
		return entry.result, nil
	}

	result, err := c.inner.Rate(ctx, currency, date)
	if err != nil {
		// Errors are not cached: the next call retries the provider.
		return Result{}, err
	}

	c.mu.Lock()
	c.cache[key] = cachedRate{
		result:    result,
		fetchedAt: time.Now(),
		pinned:    date != nil,
	}
	c.mu.Unlock()

	return result, nil
}

func cacheKey(currency string, date *time.Time) string {
	if date == nil {
		return currency + "|latest"
	}
	return currency + "|" + date.Format("2006-01-02")
}

var _ Provider = (*CachingProvider)(nil)
