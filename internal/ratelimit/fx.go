package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/shulebooks/shulebooks/internal/config"
	"go.uber.org/fx"
)

// NewRedisClient returns nil when no redis address is configured; the token
// bucket treats a nil client as unthrottled.
func NewRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// ProvideLimiter exposes the token bucket behind the Limiter interface. The
// nil-receiver path keeps an unconfigured bucket unthrottled.
func ProvideLimiter(bucket *TokenBucket) Limiter {
	return bucket
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewTokenBucket),
	fx.Provide(ProvideLimiter),
)
