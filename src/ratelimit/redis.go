package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the shared-store implementation for multi-instance
// deployments: a sorted set of hit timestamps per key. On any redis
// failure it fails open, matching the single-process limiter's
// best-effort contract.
type RedisLimiter struct {
	rdb    *redis.Client
	window time.Duration
	limit  int
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, window: window, limit: limit}
}

func (r *RedisLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}

func (r *RedisLimiter) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}
	ctx := context.Background()
	cutoff := time.Now().Add(-r.window).UnixMilli()
	if err := r.rdb.ZRemRangeByScore(ctx, r.key(key), "0", fmt.Sprint(cutoff)).Err(); err != nil {
		log.Printf("[ratelimit] Error pruning window for %s: %s\n", key, err.Error())
		return true
	}
	n, err := r.rdb.ZCard(ctx, r.key(key)).Result()
	if err != nil {
		log.Printf("[ratelimit] Error reading window for %s: %s\n", key, err.Error())
		return true
	}
	return int(n) < r.limit
}

func (r *RedisLimiter) Record(key string) {
	if r.limit <= 0 {
		return
	}
	ctx := context.Background()
	now := time.Now()
	err := r.rdb.ZAdd(ctx, r.key(key), redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	}).Err()
	if err != nil {
		log.Printf("[ratelimit] Error recording hit for %s: %s\n", key, err.Error())
		return
	}
	if err := r.rdb.Expire(ctx, r.key(key), r.window).Err(); err != nil {
		log.Printf("[ratelimit] Error setting TTL for %s: %s\n", key, err.Error())
	}
}
