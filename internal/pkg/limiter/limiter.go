package limiter

import (
	"context"
	"errors"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("rate limited")

type RedisLimiter struct {
	instance *redis_rate.Limiter
}

func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{redis_rate.NewLimiter(client)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	res, err := l.instance.Allow(ctx, key, limit)
	if err != nil {
		return err
	}

	if res.Allowed == 0 {
		return ErrRateLimited
	}

	return nil
}
