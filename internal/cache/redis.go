// Package cache wraps the optional Redis connection used for response caching
// and distributed rate limiting.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

var globalRedis *RedisClient

// NewRedisClient connects to Redis and registers the client as the process-wide
// instance returned by GetRedisClient.
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	rc := &RedisClient{client: client}
	globalRedis = rc

	logger.Log.Info("Redis client connected", zap.String("address", addr))
	return rc, nil
}

// GetRedisClient returns the global Redis client, or nil when Redis is not configured.
func GetRedisClient() *RedisClient {
	return globalRedis
}

// SetRedisClient replaces the global client. Passing nil disables Redis-backed features.
func SetRedisClient(rc *RedisClient) {
	globalRedis = rc
}

func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Get returns ErrMiss for absent keys.
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := rc.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// SetEx stores a value in Redis with expiration
func (rc *RedisClient) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

// IncrWindow increments a fixed-window counter and starts the window's TTL on
// the first hit. It returns the count after the increment and the remaining TTL.
func (rc *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := rc.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}

// DeletePattern removes every key matching pattern using SCAN so large keyspaces
// are not blocked.
func (rc *RedisClient) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
