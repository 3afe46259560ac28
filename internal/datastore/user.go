package datastore

import (
	"context"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_username").Unique().IfNotExists().Column("username").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserByID(ctx context.Context, db bun.IDB, id string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, db bun.IDB, user *models.User) (*models.User, error) {
	_, err := db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// BumpLifetimePoints adds to the monotonic lifetime counter; it never
// decreases, spending does not touch it.
func BumpLifetimePoints(ctx context.Context, db bun.IDB, userID string, amount int) error {
	_, err := db.NewUpdate().Model((*models.User)(nil)).
		Set("lifetime_points = lifetime_points + ?", amount).
		Set("updated_at = now()").
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func GetLifetimePoints(ctx context.Context, db bun.IDB, userID string) (int, error) {
	var points int
	err := db.NewSelect().Model((*models.User)(nil)).
		Column("lifetime_points").
		Where("id = ?", userID).
		Scan(ctx, &points)
	if err != nil {
		return 0, err
	}
	return points, nil
}

func ListUsersByTier(ctx context.Context, db bun.IDB, tiers []string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).
		Where("subscription_tier IN (?)", bun.In(tiers)).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}
