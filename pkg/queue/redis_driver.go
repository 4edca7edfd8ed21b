package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	redisQueueKey   = "storefront:queue:jobs"
	redisDelayedKey = "storefront:queue:delayed"
)

// promote moves due members of the delayed set onto the list atomically,
// so several workers promoting concurrently never duplicate a job.
var promote = redis.NewScript(`
local jobs = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, job in ipairs(jobs) do
  redis.call('ZREM', KEYS[1], job)
  redis.call('LPUSH', KEYS[2], job)
end
return #jobs
`)

// RedisDriver is a durable driver. Ready jobs live in a list (LPUSH/BRPOP);
// delayed jobs in a sorted set scored by due time in milliseconds.
type RedisDriver struct {
	rdb      *redis.Client
	interval time.Duration
}

// NewRedisDriver returns a driver on rdb. Delayed jobs are promoted by Run,
// which Queue.Run starts automatically.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	return &RedisDriver{rdb: rdb, interval: 250 * time.Millisecond}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop waits up to five seconds for a job.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, 5*time.Second, redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	due := float64(time.Now().Add(delay).UnixMilli())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{Score: due, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Run promotes due delayed jobs until ctx ends.
func (d *RedisDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Promote(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("queue/redis: promote delayed", "error", err)
			}
		}
	}
}

// Promote moves every due delayed job to the ready list and returns how many
// were moved.
func (d *RedisDriver) Promote(ctx context.Context) (int, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return promote.Run(ctx, d.rdb, []string{redisDelayedKey, redisQueueKey}, now).Int()
}

// Pending reports ready and delayed job counts.
func (d *RedisDriver) Pending(ctx context.Context) (ready, delayed int64, err error) {
	if ready, err = d.rdb.LLen(ctx, redisQueueKey).Result(); err != nil {
		return 0, 0, err
	}
	delayed, err = d.rdb.ZCard(ctx, redisDelayedKey).Result()
	return ready, delayed, err
}
