package datastore

import (
	"context"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableReward(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Reward)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateTable().Model((*models.RewardRedemption)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.RewardRedemption)(nil)).Index("index_reward_redemption_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertReward(ctx context.Context, db bun.IDB, reward *models.Reward) error {
	_, err := db.NewInsert().Model(reward).Exec(ctx)
	return err
}

func ListActiveRewards(ctx context.Context, db bun.IDB) ([]models.Reward, error) {
	var rewards []models.Reward
	err := db.NewSelect().Model(&rewards).
		Where("active = true").
		Order("points_cost ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// FindRewardForUpdate locks the reward row so the stock check and the
// decrement act on the same value.
func FindRewardForUpdate(ctx context.Context, db bun.IDB, id int64) (*models.Reward, error) {
	var reward models.Reward
	err := db.NewSelect().Model(&reward).Where("id = ?", id).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func DecrementRewardStock(ctx context.Context, db bun.IDB, id int64) error {
	_, err := db.NewUpdate().Model((*models.Reward)(nil)).
		Set("stock = stock - 1").
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("stock > 0").
		Exec(ctx)
	return err
}

func InsertRewardRedemption(ctx context.Context, db bun.IDB, redemption *models.RewardRedemption) error {
	_, err := db.NewInsert().Model(redemption).Exec(ctx)
	return err
}

func ListRedemptionsByUser(ctx context.Context, db bun.IDB, userID string) ([]*models.RewardRedemption, error) {
	var redemptions []*models.RewardRedemption
	err := db.NewSelect().Model(&redemptions).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return redemptions, nil
}
