// Package ratelimit throttles how often a host may submit a step for a
// given chain, an optional collaborator for hosts embedding the kernel
// behind a service boundary (spec §5 is explicit that the pure kernel
// itself has no concept of time or rate). Adapted from the teacher's
// pkg/kernel/limiter_redis.go token-bucket Lua script: same atomic
// refill-then-consume shape, keyed by chain_id instead of actor_id.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes a per-chain token bucket
// atomically so concurrent callers across process instances never
// double-spend a token between the read and the write.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return {allowed, tokens}
`)

// Policy bounds how fast a single chain may accept steps: StepsPerMinute
// tokens refill per minute up to Burst tokens held at once.
type Policy struct {
	StepsPerMinute float64
	Burst          float64
}

// Limiter enforces a Policy per chain_id via Redis, so the limit is shared
// across every host process fronting the same chain.
type Limiter struct {
	client *redis.Client
}

// NewLimiter wraps an existing Redis client. The caller owns the client's
// lifecycle; this package never dials a connection itself.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow consumes one token for chainID under policy, returning false
// (never an error) when the bucket is empty — callers should reject the
// step with a 429-equivalent, not treat it as a kernel-level rejection.
func (l *Limiter) Allow(ctx context.Context, chainID string, policy Policy) (bool, error) {
	rate := policy.StepsPerMinute / 60.0
	if rate <= 0 {
		rate = 1.0
	}
	burst := policy.Burst
	if burst <= 0 {
		burst = 1.0
	}
	key := fmt.Sprintf("gtk:ratelimit:%s", chainID)
	now := float64(time.Now().UnixMicro()) / 1e6

	res, err := tokenBucketScript.Run(ctx, l.client, []string{key}, rate, burst, 1.0, now).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis error: %w", err)
	}
	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return false, fmt.Errorf("ratelimit: unexpected script response shape")
	}
	allowed, _ := results[0].(int64)
	return allowed == 1, nil
}
