package quota

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// RedisManager provides atomic rate limiting using a Redis Lua script,
// for deployments where multiple workers share one account's budgets.
// The GET -> check -> INCR pattern is racy across processes; the script
// makes the trailing-window check and the record a single atomic step.
type RedisManager struct {
	redis   *redis.Client
	budgets map[domain.Platform]map[domain.ActionType]int

	// Pre-compiled Lua script for atomicity
	windowScript *redis.Script
}

// Lua script for atomic trailing-window rate limiting. Expired members are
// dropped from the sorted set, the remaining cardinality is compared against
// the limit, and the new execution is added only if the check passes.
const windowLuaScript = `
local key = KEYS[1]
local nowMs = tonumber(ARGV[1])
local windowMs = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, "-inf", nowMs - windowMs)

local current = redis.call("ZCARD", key)
if limit > 0 and current >= limit then
    return {0, current}  -- denied
end

redis.call("ZADD", key, nowMs, member)
redis.call("PEXPIRE", key, windowMs)
return {1, current + 1}  -- allowed
`

// NewRedisManager creates a Redis-backed quota manager with a pre-compiled
// Lua script. overrides may be nil.
func NewRedisManager(client *redis.Client, overrides map[string]int) *RedisManager {
	return &RedisManager{
		redis:        client,
		budgets:      Budgets(overrides),
		windowScript: redis.NewScript(windowLuaScript),
	}
}

// NewRedisManagerFromURL creates a quota manager by connecting to Redis.
func NewRedisManagerFromURL(redisURL string, overrides map[string]int) (*RedisManager, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Printf("[QuotaManager] Connected to Redis at %s", redisURL)

	return NewRedisManager(client, overrides), nil
}

func (r *RedisManager) limit(platform domain.Platform, action domain.ActionType) int {
	if actions, ok := r.budgets[platform]; ok {
		return actions[action]
	}
	return 0
}

func (r *RedisManager) key(platform domain.Platform, action domain.ActionType) string {
	return fmt.Sprintf("quota:%s", bucketKey(platform, action))
}

// Check reports whether the bucket has capacity. Pure query; nothing is
// recorded.
func (r *RedisManager) Check(ctx context.Context, platform domain.Platform, action domain.ActionType) (bool, error) {
	limit := r.limit(platform, action)
	if limit == 0 {
		return true, nil
	}
	now := time.Now()
	key := r.key(platform, action)
	if err := r.redis.ZRemRangeByScore(ctx, key, "-inf",
		fmt.Sprintf("%d", now.Add(-Window).UnixMilli())).Err(); err != nil {
		return false, fmt.Errorf("quota check failed: %w", err)
	}
	count, err := r.redis.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("quota check failed: %w", err)
	}
	return int(count) < limit, nil
}

// CheckAndRecord atomically checks and records one execution.
func (r *RedisManager) CheckAndRecord(ctx context.Context, platform domain.Platform, action domain.ActionType) error {
	limit := r.limit(platform, action)
	now := time.Now()
	member := fmt.Sprintf("%d-%d", now.UnixNano(), limit)

	result, err := r.windowScript.Run(ctx, r.redis,
		[]string{r.key(platform, action)},
		now.UnixMilli(),
		Window.Milliseconds(),
		limit,
		member,
	).Slice()
	if err != nil {
		return fmt.Errorf("quota check failed: %w", err)
	}

	if result[0].(int64) == 0 {
		return ErrRateLimited
	}
	return nil
}

// Usage returns the current window count and configured limit.
func (r *RedisManager) Usage(ctx context.Context, platform domain.Platform, action domain.ActionType) (int, int, error) {
	key := r.key(platform, action)
	now := time.Now()
	if err := r.redis.ZRemRangeByScore(ctx, key, "-inf",
		fmt.Sprintf("%d", now.Add(-Window).UnixMilli())).Err(); err != nil {
		return 0, 0, fmt.Errorf("quota usage failed: %w", err)
	}
	count, err := r.redis.ZCard(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("quota usage failed: %w", err)
	}
	return int(count), r.limit(platform, action), nil
}

// Close closes the Redis connection
func (r *RedisManager) Close() error {
	return r.redis.Close()
}
