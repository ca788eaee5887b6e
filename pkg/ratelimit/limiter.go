package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/config"
	"github.com/certhq/certify/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a Redis-backed fixed-window rate limiter keyed by client IP.
// Redis errors fail open: a broken limiter must not take the public
// verification endpoint down with it.
type Limiter struct {
	client redis.Cmdable
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewLimiter creates a limiter with the given Redis client and configuration
func NewLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow overrides the limiter's clock, used in tests
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow reports whether the given key may make another request in the
// current window
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.cfg.Enabled {
		return true, nil
	}

	window := l.now().Unix() / int64(l.cfg.WindowSeconds)
	redisKey := fmt.Sprintf("%s:%s:%d", l.cfg.RedisPrefix, key, window)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, time.Duration(l.cfg.WindowSeconds)*time.Second).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.cfg.Limit), nil
}

// Middleware enforces the rate limit per client IP
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Fail open on Redis errors
			logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			common.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}
