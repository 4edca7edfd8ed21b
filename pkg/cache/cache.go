// Package cache provides a JSON value cache with Redis, in-process and no-op
// backends selected by CACHE_DRIVER.
//
//	var products []models.Product
//	if hit, _ := store.Get(ctx, key, &products); !hit {
//	    products = load()
//	    _ = store.Set(ctx, key, products, time.Minute)
//	}
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Store is the cache contract used by services. A miss is (false, nil).
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key beginning with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// New builds the Store named by CACHE_DRIVER (redis | memory | null).
func New(rdb *redis.Client) (Store, error) {
	switch d := config.CacheDriver(); d {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("cache: redis driver selected without a client")
		}
		return NewRedis(rdb), nil
	case "memory":
		return NewMemory(), nil
	case "null", "":
		return Null{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", d)
	}
}

// NewRedisClient dials REDIS_ADDR and verifies the connection.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// ------------------- Redis -------------------

// Redis stores JSON-encoded values in Redis.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (s *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCache("redis", false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	metrics.RecordCache("redis", true)
	return true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

func (s *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.Delete(ctx, batch...)
}

// ------------------- Memory -------------------

type item struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Store, used by single-instance deployments and
// tests.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]item), now: time.Now}
}

func (s *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || (!it.expires.IsZero() && s.now().After(it.expires)) {
		metrics.RecordCache("memory", false)
		return false, nil
	}
	if err := json.Unmarshal(it.data, dest); err != nil {
		return false, err
	}
	metrics.RecordCache("memory", true)
	return true, nil
}

func (s *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	it := item{data: data}
	if ttl > 0 {
		it.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
	return nil
}

func (s *Memory) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.items, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *Memory) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
		}
	}
	s.mu.Unlock()
	return nil
}

// ------------------- Null -------------------

// Null never stores anything; every Get is a miss.
type Null struct{}

func (Null) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (Null) Set(context.Context, string, any, time.Duration) error { return nil }
func (Null) Delete(context.Context, ...string) error               { return nil }
func (Null) DeletePrefix(context.Context, string) error            { return nil }
