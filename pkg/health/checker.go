package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Checker probes a single dependency
type Checker func() error

const defaultTimeout = 2 * time.Second

// PostgresChecker returns a health check for the connection pool
func PostgresChecker(pool *pgxpool.Pool) Checker {
	return func() error {
		if pool == nil {
			return errors.New("database pool is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// RedisChecker returns a health check for Redis
func RedisChecker(client redis.Cmdable) Checker {
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// CompositeChecker runs a set of named checks and reports the first failure
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		for key, check := range checkers {
			if err := check(); err != nil {
				return fmt.Errorf("%s.%s: %w", name, key, err)
			}
		}
		return nil
	}
}

// CachedChecker memoizes a check result for a TTL so frequent health probes
// do not hammer the dependency.
type CachedChecker struct {
	mu        sync.Mutex
	checker   Checker
	cacheTTL  time.Duration
	lastRun   time.Time
	lastError error
}

// NewCachedChecker wraps a checker with a result cache
func NewCachedChecker(checker Checker, ttl time.Duration) *CachedChecker {
	return &CachedChecker{checker: checker, cacheTTL: ttl}
}

// Check runs the underlying checker, or returns the cached result while the
// TTL has not elapsed
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRun.IsZero() && time.Since(c.lastRun) < c.cacheTTL {
		return c.lastError
	}

	c.lastError = c.checker()
	c.lastRun = time.Now()
	return c.lastError
}
