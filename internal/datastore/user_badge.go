package datastore

import (
	"context"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUserBadge(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserBadge)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserBadge)(nil)).Index("index_user_badge_user_key").Unique().IfNotExists().Column("user_id", "badge_key").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertUserBadge awards a badge if absent. Returns false when the user
// already holds it; a duplicate award is a no-op, never an error.
func InsertUserBadge(ctx context.Context, db bun.IDB, badge *models.UserBadge) (bool, error) {
	res, err := db.NewInsert().Model(badge).On("CONFLICT (user_id, badge_key) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func ListBadgesByUser(ctx context.Context, db bun.IDB, userID string) ([]*models.UserBadge, error) {
	var badges []*models.UserBadge
	err := db.NewSelect().Model(&badges).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return badges, nil
}
