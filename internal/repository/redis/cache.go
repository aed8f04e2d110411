package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zenit-qa/zenit/internal/config"
	"github.com/zenit-qa/zenit/internal/locator"
)

// Cache provides Redis caching functionality
type Cache struct {
	client *redis.Client
}

// Key prefixes for different cache types
const (
	PrefixLocator   = "locator:"
	PrefixRateLimit = "ratelimit:"
)

// Default TTLs
const (
	DefaultTTL      = 15 * time.Minute
	RateLimitWindow = 1 * time.Minute
)

// New creates a new Redis cache client
func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Health checks Redis connectivity
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Locator output caching

// LocatorKey derives the cache key of one generation request. Identical
// markup rendered for the same target always maps to the same key.
func LocatorKey(mode string, fw locator.Framework, lang locator.Language, html string) string {
	h := sha256.New()
	for _, part := range []string{mode, string(fw), string(lang)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write([]byte(html))
	return PrefixLocator + hex.EncodeToString(h.Sum(nil))
}

// GetLocatorOutput retrieves a cached generation result. A miss returns nil.
func (c *Cache) GetLocatorOutput(ctx context.Context, key string) (*locator.Output, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var out locator.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SetLocatorOutput caches a generation result
func (c *Cache) SetLocatorOutput(ctx context.Context, key string, out *locator.Output, ttl time.Duration) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Rate limiting

// CheckRateLimit checks and increments rate limit counter
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int) (bool, int, error) {
	fullKey := PrefixRateLimit + key

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, RateLimitWindow)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	return count <= limit, count, nil
}
