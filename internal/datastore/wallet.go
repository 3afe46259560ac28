package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

// ErrInsufficientFunds is returned when a balance adjustment would drive a
// free or locked balance negative. The guard lives in the UPDATE itself so
// a concurrent deduction cannot race past the check.
var ErrInsufficientFunds = errors.New("insufficient funds")

func CreateTableWallet(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Wallet)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Wallet)(nil)).Index("index_wallet_user_id").Unique().IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// GetOrCreateWallet finds the user's wallet, creating a zeroed one on first
// use. Wallets are never deleted.
func GetOrCreateWallet(ctx context.Context, db bun.IDB, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.NewSelect().Model(&wallet).Where("user_id = ?", userID).Scan(ctx)
	if err == nil {
		return &wallet, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	wallet = models.Wallet{UserID: userID, UpdatedAt: time.Now()}
	_, err = db.NewInsert().Model(&wallet).On("CONFLICT (user_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, err
	}

	// lost a creation race or just created; either way the row exists now
	err = db.NewSelect().Model(&wallet).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func FindWalletByID(ctx context.Context, db bun.IDB, walletID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.NewSelect().Model(&wallet).Where("id = ?", walletID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetWalletForUpdate locks the wallet row for the rest of the enclosing
// transaction. Every settlement mutation goes through this.
func GetWalletForUpdate(ctx context.Context, db bun.IDB, walletID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.NewSelect().Model(&wallet).Where("id = ?", walletID).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// AdjustPoints applies a free and a locked delta to the points ledger in one
// guarded UPDATE. Zero rows affected means a balance would have gone negative.
func AdjustPoints(ctx context.Context, db bun.IDB, walletID int64, freeDelta, lockedDelta int) error {
	res, err := db.NewUpdate().Model((*models.Wallet)(nil)).
		Set("points = points + ?", freeDelta).
		Set("locked_points = locked_points + ?", lockedDelta).
		Set("updated_at = now()").
		Where("id = ?", walletID).
		Where("points + ? >= 0", freeDelta).
		Where("locked_points + ? >= 0", lockedDelta).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientFunds
	}

	return nil
}

// AdjustMoney is AdjustPoints for the money ledger.
func AdjustMoney(ctx context.Context, db bun.IDB, walletID int64, freeDelta, lockedDelta int) error {
	res, err := db.NewUpdate().Model((*models.Wallet)(nil)).
		Set("balance = balance + ?", freeDelta).
		Set("locked_balance = locked_balance + ?", lockedDelta).
		Set("updated_at = now()").
		Where("id = ?", walletID).
		Where("balance + ? >= 0", freeDelta).
		Where("locked_balance + ? >= 0", lockedDelta).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientFunds
	}

	return nil
}

func UpdateWalletStreak(ctx context.Context, db bun.IDB, walletID int64, streak int, lastActiveAt time.Time) error {
	_, err := db.NewUpdate().Model((*models.Wallet)(nil)).
		Set("streak = ?", streak).
		Set("last_active_at = ?", lastActiveAt).
		Set("updated_at = now()").
		Where("id = ?", walletID).
		Exec(ctx)
	return err
}
