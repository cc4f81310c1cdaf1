// Package ratelimit implements a fixed-window request limiter backed by
// Redis, so the limit holds across multiple server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key (normally a client IP) in a rolling
// window. The count-and-check runs as one Lua script, so concurrent
// requests cannot race past the limit.
type Limiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

// NewLimiter creates a Limiter allowing maxRequests per window.
func NewLimiter(client *redis.Client, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
	}
}

var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local current_time = tonumber(ARGV[3])

	local current = redis.call('GET', key)

	if current == false then
		redis.call('SET', key, 1, 'EX', window)
		return {1, max_requests - 1, current_time + window}
	else
		current = tonumber(current)
		if current < max_requests then
			redis.call('INCR', key)
			local ttl = redis.call('TTL', key)
			return {1, max_requests - current - 1, current_time + ttl}
		else
			local ttl = redis.call('TTL', key)
			return {0, 0, current_time + ttl}
		end
	end
`)

// Allow checks whether a request under key may proceed. Returns whether
// it is allowed, how many requests remain in the window, and when the
// window resets.
func (rl *Limiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)
	now := time.Now()

	result, err := allowScript.Run(
		ctx,
		rl.client,
		[]string{redisKey},
		rl.maxRequests,
		int(rl.window.Seconds()),
		now.Unix(),
	).Result()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected rate limit script result")
	}

	allowed := resultSlice[0].(int64) == 1
	remaining := int(resultSlice[1].(int64))
	resetTime := time.Unix(resultSlice[2].(int64), 0)

	return allowed, remaining, resetTime, nil
}

// Reset clears the counter for a key.
func (rl *Limiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, fmt.Sprintf("ratelimit:%s", key)).Err()
}

// MaxRequests returns the per-window request budget.
func (rl *Limiter) MaxRequests() int {
	return rl.maxRequests
}
