package datastore

import (
	"context"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

const platformWalletID = 1

func CreateTablePlatform(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PlatformWallet)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateTable().Model((*models.PlatformTransaction)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	wallet := &models.PlatformWallet{ID: platformWalletID}
	_, err = db.NewInsert().Model(wallet).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	return err
}

// CreditPlatform moves value into the platform wallet and writes the
// matching platform ledger row; both inside the caller's transaction.
func CreditPlatform(ctx context.Context, db bun.IDB, txType string, amount int, description string) error {
	_, err := db.NewUpdate().Model((*models.PlatformWallet)(nil)).
		Set("balance = balance + ?", amount).
		Set("updated_at = now()").
		Where("id = ?", platformWalletID).
		Exec(ctx)
	if err != nil {
		return err
	}

	return InsertTransactionPlatform(ctx, db, &models.PlatformTransaction{
		Type:        txType,
		Amount:      amount,
		Description: description,
	})
}

func InsertTransactionPlatform(ctx context.Context, db bun.IDB, tx *models.PlatformTransaction) error {
	_, err := db.NewInsert().Model(tx).Exec(ctx)
	return err
}

func GetPlatformWallet(ctx context.Context, db bun.IDB) (*models.PlatformWallet, error) {
	var wallet models.PlatformWallet
	err := db.NewSelect().Model(&wallet).Where("id = ?", platformWalletID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
