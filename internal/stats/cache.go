package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const rankedKey = "rollcall:leaderboard:ranked"

// LeaderboardCache keeps the fully ranked sequence in redis for a short TTL.
// The whole sequence is cached, never individual pages, so a cached page and
// a cached self entry always come from the same ranking.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates the cache. TTL <= 0 disables expiry-based
// staleness control and is clamped to 30s.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get returns the cached ranked sequence, or ok=false on miss or error.
func (c *LeaderboardCache) Get(ctx context.Context) ([]Entry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, rankedKey).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores the ranked sequence. Failures are the caller's to log; caching
// is always best-effort.
func (c *LeaderboardCache) Set(ctx context.Context, entries []Entry) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rankedKey, raw, c.ttl).Err()
}
