package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/ListingBank/config"
	"go.uber.org/zap"
)

const rateLimitPrefix = "ratelimit"

// RateLimit applies a fixed-window counter per caller (user id once authenticated, otherwise IP).
// Redis errors fail open.
func RateLimit(redisClient *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid := UserID(c); uid != "" {
			subject = "user:" + uid
		}
		key := rateLimitPrefix + ":" + subject

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Error("rate limit redis error", zap.Error(err))
			return c.Next()
		}

		// A new window (or a counter whose expiry was lost) has no TTL yet.
		if ttl.Val() < 0 {
			if err := redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
				logger.Warn("rate limit expiry not set", zap.String("key", key), zap.Error(err))
			}
		}

		count := incr.Val()
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, cfg.MaxRequests-int(count))))

		if count > int64(cfg.MaxRequests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
