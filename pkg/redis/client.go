package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Namespace prefixes every key so multiple deployments can share an instance.
const Namespace = "sb"

// Client wraps go-redis with namespaced key helpers.
type Client struct {
	rdb *redis.Client
}

func New(cfg config.RedisConfig) (*Client, error) {
	var opts *redis.Options

	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	return &Client{rdb: redis.NewClient(opts)}, nil
}

// Key builds a namespaced key from the given parts.
func Key(parts ...string) string {
	return Namespace + ":" + strings.Join(parts, ":")
}

// EventKey is the idempotency guard key for a payment provider event.
func EventKey(provider, eventID string) string {
	return Key("events", provider, eventID)
}

// SessionKey stores a user's conversational state.
func SessionKey(userID int64) string {
	return Key("sessions", fmt.Sprintf("%d", userID))
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetNX sets key to value only if it does not exist. Returns true when the
// key was set by this call.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Get returns the value for key, or ("", nil) when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}
