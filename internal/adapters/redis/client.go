package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"pulse/internal/adapters/config"
)

// Client wraps the Redis client used for the pipeline run lock
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AcquireLock takes a named lock with a TTL. Returns false without error
// when another holder already owns it.
func (c *Client) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, name, owner, ttl).Result()
}

// ReleaseLock releases a named lock, but only if owner still holds it. A
// lock that expired and was re-acquired by someone else is left alone.
func (c *Client) ReleaseLock(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, c.rdb, []string{name}, owner).Err()
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)
