package datastore

import (
	"context"
	"time"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableStreakInsurance(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.StreakInsurance)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.StreakInsurance)(nil)).Index("index_streak_insurance_wallet_contract").IfNotExists().Column("wallet_id", "contract_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertStreakInsurance(ctx context.Context, db bun.IDB, insurance *models.StreakInsurance) error {
	_, err := db.NewInsert().Model(insurance).Exec(ctx)
	return err
}

func CountInsuranceUses(ctx context.Context, db bun.IDB, walletID, contractID int64) (int, error) {
	return db.NewSelect().Model((*models.StreakInsurance)(nil)).
		Where("wallet_id = ?", walletID).
		Where("contract_id = ?", contractID).
		Count(ctx)
}

// CountInsuranceUsesSince counts covered days bought after a point in time;
// streak continuation uses it to forgive the gap since the last active day.
func CountInsuranceUsesSince(ctx context.Context, db bun.IDB, walletID, contractID int64, since time.Time) (int, error) {
	return db.NewSelect().Model((*models.StreakInsurance)(nil)).
		Where("wallet_id = ?", walletID).
		Where("contract_id = ?", contractID).
		Where("used_at > ?", since).
		Count(ctx)
}
