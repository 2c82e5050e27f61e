package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/hallbooking-admin/pkg/logger"
)

// Limiter reports whether another attempt under key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit:"}
}

// Connect parses a redis:// URL and returns a client after a ping.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Allow counts the attempt in a fixed window. Redis errors fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	hashed := fmt.Sprintf("%s%x", l.prefix, sha256.Sum256([]byte(key)))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	count, err := l.client.Incr(ctx, hashed).Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request", "error", err.Error())
		return true, nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, hashed, window).Err(); err != nil {
			logger.WarnContext(ctx, "Rate limit expiry not set", "error", err.Error())
		}
	}

	return count <= int64(limit), nil
}

// Nop never limits.
type Nop struct{}

func (Nop) Allow(context.Context, string, int, time.Duration) (bool, error) { return true, nil }
