package services

import (
	"context"
	"database/sql"

	"daredo/internal/datastore"
	"daredo/internal/models"
	"daredo/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceReward struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReward{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceReward) GetCatalog(ctx context.Context) ([]models.Reward, error) {
	callback := func() ([]models.Reward, error) {
		rewards, err := datastore.ListActiveRewards(ctx, service.readonlyPostgresDB)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return rewards, err
	}

	// long TTL is fine, every redemption busts this key explicitly
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyRewardCatalog(), CACHE_TTL_1_HOUR, callback)
}

func (service *ServiceReward) GetRedemptions(ctx context.Context, userID string) ([]*models.RewardRedemption, error) {
	return datastore.ListRedemptionsByUser(ctx, service.readonlyPostgresDB, userID)
}

func (service *ServiceReward) ClearCatalogCache(ctx context.Context) error {
	return service.cache.Delete(ctx, DBKeyRewardCatalog())
}
