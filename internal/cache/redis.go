// Package cache is a thin Redis layer over the read-heavy endpoints. Every
// method degrades gracefully: with no Redis available the cache becomes a
// no-op and reads fall through to postgres.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cylinder-backend/internal/metrics"
	"cylinder-backend/internal/models"
)

const (
	customerKeyFmt = "customers:%d"
	DashboardKey   = "dashboard:summary"

	customerTTL  = 10 * time.Minute
	dashboardTTL = 5 * time.Minute
)

type RedisCache struct {
	client *redis.Client
}

// New connects to Redis at addr. On connection failure it returns a cache
// with a nil client (all operations no-op) plus the error, so the caller can
// log and keep going.
func New(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return &RedisCache{}, err
	}
	return &RedisCache{client: client}, nil
}

// Disabled returns a cache that never stores anything. Used in tests and
// when Redis is switched off in config.
func Disabled() *RedisCache {
	return &RedisCache{}
}

func (c *RedisCache) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Close()
}

// IsHealthy reports whether the Redis connection is usable.
func (c *RedisCache) IsHealthy() bool {
	if c == nil || c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

func (c *RedisCache) GetCustomer(ctx context.Context, id int) (*models.Customer, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, fmt.Sprintf(customerKeyFmt, id)).Bytes()
	if err != nil {
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	var cust models.Customer
	if err := json.Unmarshal(data, &cust); err != nil {
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("hit").Inc()
	return &cust, true
}

func (c *RedisCache) SetCustomer(ctx context.Context, cust *models.Customer) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(cust)
	if err != nil {
		return
	}
	c.client.Set(ctx, fmt.Sprintf(customerKeyFmt, cust.ID), data, customerTTL)
}

// InvalidateCustomer drops one customer entry plus the dashboard summary,
// since customer aggregates feed the dashboard totals.
func (c *RedisCache) InvalidateCustomer(ctx context.Context, id int) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, fmt.Sprintf(customerKeyFmt, id), DashboardKey)
}

// InvalidateCustomers drops every customer entry and the dashboard summary.
func (c *RedisCache) InvalidateCustomers(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	keys, err := c.client.Keys(ctx, "customers:*").Result()
	if err == nil && len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
	c.client.Del(ctx, DashboardKey)
}

// GetCached returns raw cached bytes for a key.
func (c *RedisCache) GetCached(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("hit").Inc()
	return data, true
}

// SetCached stores raw bytes with a TTL.
func (c *RedisCache) SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}
