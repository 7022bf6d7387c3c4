package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paysignal/internal/clock"
)

// The same trailing-window algorithm as SlidingWindow, made atomic on a
// sorted set so several processes share one window per key.
const slidingWindowScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])

local allowed = 0
if count < limit then
  redis.call("ZADD", KEYS[1], now, ARGV[4])
  redis.call("PEXPIRE", KEYS[1], window)
  count = count + 1
  allowed = 1
end

local reset = window
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
if oldest[2] ~= nil then
  reset = tonumber(oldest[2]) + window - now
end

-- Return: allowed, count, reset (milliseconds)
return {allowed, count, reset}
`

type RedisWindow struct {
	client   redis.Scripter
	script   *redis.Script
	clock    clock.Clock
	ceilings func() Ceilings
}

func NewRedisWindow(client redis.Scripter, clk clock.Clock, ceilings func() Ceilings) *RedisWindow {
	if client == nil {
		return nil
	}
	return &RedisWindow{
		client:   client,
		script:   redis.NewScript(slidingWindowScript),
		clock:    clk,
		ceilings: ceilings,
	}
}

func (r *RedisWindow) Check(ctx context.Context, tenantKey, action string) (Decision, error) {
	if r == nil || r.client == nil {
		return Decision{}, errors.New("rate limiter not configured")
	}
	key, err := bucketKey(tenantKey, action)
	if err != nil {
		return Decision{}, err
	}
	limit := r.ceilings().Ceiling(action)

	res, err := r.script.Run(
		ctx,
		r.client,
		[]string{key},
		r.clock.Now().UnixMilli(),
		Window.Milliseconds(),
		limit,
		uuid.NewString(),
	).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) < 3 {
		return Decision{}, errors.New("invalid rate limit script response")
	}

	allowed := castToInt(res[0]) == 1
	count := int(castToInt(res[1]))
	reset := time.Duration(castToInt(res[2])) * time.Millisecond
	if reset < 0 {
		reset = 0
	}

	remaining := limit - count
	if remaining < 0 || !allowed {
		remaining = 0
	}
	return Decision{Allowed: allowed, Limit: limit, Remaining: remaining, ResetIn: reset}, nil
}

func castToInt(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
