package cache

import (
	"context"
	"fmt"
	"time"

	"whale-radar/llm"
)

// NarrativeCache serves recent per-ticker narrative classifications so a run
// shortly after another does not re-bill the classifier for the same news.
type NarrativeCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewNarrativeCache creates a new narrative cache. A nil redis client
// disables it.
func NewNarrativeCache(redis *RedisClient, ttl time.Duration) *NarrativeCache {
	return &NarrativeCache{
		redis: redis,
		ttl:   ttl,
	}
}

// Get retrieves a cached narrative for a ticker.
// Returns the cached narrative and true if found, nil and false otherwise.
func (c *NarrativeCache) Get(ctx context.Context, ticker string) (*llm.Narrative, bool) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return nil, false
	}

	cacheKey := fmt.Sprintf("narrative:%s", ticker)
	var narrative llm.Narrative

	if err := c.redis.Get(ctx, cacheKey, &narrative); err != nil {
		return nil, false
	}

	return &narrative, true
}

// Set caches a narrative classification for a ticker.
func (c *NarrativeCache) Set(ctx context.Context, ticker string, narrative *llm.Narrative) error {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return fmt.Errorf("narrative cache not available")
	}

	cacheKey := fmt.Sprintf("narrative:%s", ticker)
	return c.redis.Set(ctx, cacheKey, narrative, c.ttl)
}
