package payments

import (
	"context"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/redis"
)

// RedisEventGuard deduplicates gateway events with a SETNX marker per event
// id. Entries expire after the configured TTL.
type RedisEventGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEventGuard builds the guard around the shared redis client.
func NewRedisEventGuard(client *redis.Client, ttl time.Duration) *RedisEventGuard {
	return &RedisEventGuard{client: client, ttl: ttl}
}

// FirstSeen returns true exactly once per (provider, eventID) within the TTL.
func (g *RedisEventGuard) FirstSeen(ctx context.Context, provider, eventID string) (bool, error) {
	return g.client.SetNX(ctx, redis.EventKey(provider, eventID), "1", g.ttl)
}
