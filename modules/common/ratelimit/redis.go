package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counts one hit and starts the window on the first one.
// Returns {count, pttl}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisLimiter shares fixed windows across processes. Key expiry replaces
// the sweep.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisLimiter - keys are stored as "<prefix><key>"
func NewRedisLimiter(rdb *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow counts one request for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, maxRequests int, window time.Duration) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit reply: %v", vals)
	}

	count, ttl := int(vals[0]), vals[1]
	if ttl < 0 {
		ttl = window.Milliseconds()
	}
	resetAt := l.now().Add(time.Duration(ttl) * time.Millisecond)

	if count > maxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: maxRequests - count, ResetAt: resetAt}, nil
}
