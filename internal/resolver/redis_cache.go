package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisKeyPrefix = "salescrm:formconfig:"

// RedisCache shares resolved configurations across processes. Cache misses
// and backend failures both fall through to a fresh resolve, so a degraded
// Redis never blocks form rendering.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCache constructs a Redis-backed configuration cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, timeout: 3 * time.Second}
}

// Get returns the cached configuration for formType.
func (c *RedisCache) Get(formType string) (*Config, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, redisKeyPrefix+formType).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithField("form_type", formType).WithError(err).Warn("resolver: redis get failed")
		}
		return nil, false
	}

	var cfg Config
	if errDecode := json.Unmarshal(raw, &cfg); errDecode != nil {
		log.WithField("form_type", formType).WithError(errDecode).Warn("resolver: cached config corrupt")
		return nil, false
	}
	return &cfg, true
}

// Set stores the configuration for formType without expiry.
func (c *RedisCache) Set(formType string, cfg *Config) {
	encoded, errEncode := json.Marshal(cfg)
	if errEncode != nil {
		log.WithField("form_type", formType).WithError(errEncode).Warn("resolver: config encode failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, redisKeyPrefix+formType, encoded, 0).Err(); err != nil {
		log.WithField("form_type", formType).WithError(err).Warn("resolver: redis set failed")
	}
}

// Invalidate removes the entry for formType.
func (c *RedisCache) Invalidate(formType string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Del(ctx, redisKeyPrefix+formType).Err(); err != nil {
		log.WithField("form_type", formType).WithError(err).Warn("resolver: redis del failed")
	}
}
