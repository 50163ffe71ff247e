package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limiter counts hits in a fixed window
type Limiter interface {
	// Hit increments the counter for key and returns the new count.
	// The counter expires after window.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisLimiter stores counters in Redis
type RedisLimiter struct {
	rdb redis.Cmdable
}

// NewRedisLimiter creates a Limiter backed by rdb
func NewRedisLimiter(rdb redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

// Hit increments key and sets its expiry in one round trip
func (l *RedisLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// Slightly longer than the window to cover clock skew between instances
		pipe.Expire(ctx, key, window+time.Second)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitConfig configures RateLimitMiddleware
type RateLimitConfig struct {
	Limiter   Limiter
	PerMinute int
	Now       func() time.Time
}

// RateLimitMiddleware limits each client IP to PerMinute requests per minute.
// Counter failures let the request through.
func RateLimitMiddleware(cfg RateLimitConfig) fiber.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(c *fiber.Ctx) error {
		if cfg.Limiter == nil || cfg.PerMinute <= 0 {
			return c.Next()
		}

		now := cfg.Now()
		window := now.Unix() / 60
		key := fmt.Sprintf("rl:ip:%s:minute:%d", c.IP(), window)

		count, err := cfg.Limiter.Hit(c.UserContext(), key, time.Minute)
		if err != nil {
			log.Printf("Rate limiter unavailable: %v", err)
			return c.Next()
		}

		resetAt := (window + 1) * 60
		remaining := int64(cfg.PerMinute) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.PerMinute))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

		if count > int64(cfg.PerMinute) {
			retryAfter := resetAt - now.Unix()
			c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests per minute",
				"limit":       cfg.PerMinute,
				"retry_after": retryAfter,
			})
		}

		return c.Next()
	}
}
