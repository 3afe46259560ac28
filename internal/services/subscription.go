package services

import (
	"context"
	"database/sql"
	"time"

	"daredo/internal/datastore"
	"daredo/internal/models"
	"daredo/internal/rules"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceSubscription resolves subscription tiers. Settlement asks on every
// call so a lapsed subscription takes effect immediately; nothing is cached
// on contracts.
type ServiceSubscription struct {
	container  *do.Injector
	postgresDB *bun.DB
}

func NewServiceSubscription(container *do.Injector) (*ServiceSubscription, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSubscription{container, postgresDB}, nil
}

// TierOf implements interfaces.TierProvider. An expired subscription
// resolves to free.
func (service *ServiceSubscription) TierOf(ctx context.Context, userID string) (rules.Tier, error) {
	user, err := datastore.FindUserByID(ctx, service.postgresDB, userID)
	if err == sql.ErrNoRows {
		return rules.TierFree, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return rules.TierFree, err
	}

	tier := rules.ParseTier(user.SubscriptionTier)
	if tier != rules.TierFree && user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.Before(time.Now()) {
		return rules.TierFree, nil
	}

	return tier, nil
}

func (service *ServiceSubscription) FindOrCreateUser(ctx context.Context, auth *models.UserFromAuth) (*models.User, error) {
	user, err := datastore.FindUserByID(ctx, service.postgresDB, auth.ID)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	user = &models.User{
		ID:               auth.ID,
		Username:         auth.Username,
		Role:             models.RoleUser,
		SubscriptionTier: string(rules.TierFree),
		UpdatedAt:        time.Now(),
	}
	if auth.Role == models.RoleAdmin {
		user.Role = models.RoleAdmin
	}

	return datastore.CreateUser(ctx, service.postgresDB, user)
}

// ListSubscribers pages through paying users for the monthly bonus job.
func (service *ServiceSubscription) ListSubscribers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return datastore.ListUsersByTier(ctx, service.postgresDB, []string{string(rules.TierStarter), string(rules.TierPro)}, limit, offset)
}
