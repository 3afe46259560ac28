package interfaces

import (
	"context"

	"daredo/internal/rules"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// TierProvider resolves the current subscription tier of a user. Settlement
// reads it fresh on every call; the tier is never cached on a contract.
type TierProvider interface {
	TierOf(ctx context.Context, userID string) (rules.Tier, error)
}
