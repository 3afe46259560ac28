package datastore

import (
	"context"
	"database/sql"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTransaction(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Transaction)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("index_transaction_wallet_id").IfNotExists().Column("wallet_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("index_transaction_contract_id").IfNotExists().Column("contract_id").Exec(ctx)
	if err != nil {
		return err
	}

	// partial unique index: webhook redelivery must not credit twice
	_, err = db.NewRaw(`
		create unique index if not exists index_transaction_external_reference
			on "transaction" (external_reference)
			where external_reference is not null;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertTransaction appends a ledger row. It is a notebook, not a gate: no
// business validation happens here, the caller owns correctness and must run
// this inside the same transaction as the balance mutation it documents.
func InsertTransaction(ctx context.Context, db bun.IDB, tx *models.Transaction) error {
	_, err := db.NewInsert().Model(tx).Exec(ctx)
	return err
}

// InsertExternalTransaction appends a payment-credit row keyed by its
// external reference. Returns false without error when the reference was
// already recorded.
func InsertExternalTransaction(ctx context.Context, db bun.IDB, tx *models.Transaction) (bool, error) {
	res, err := db.NewInsert().Model(tx).On("CONFLICT (external_reference) WHERE external_reference IS NOT NULL DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func FindTransactionByExternalReference(ctx context.Context, db bun.IDB, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.NewSelect().Model(&tx).Where("external_reference = ?", reference).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func FindTransactionByID(ctx context.Context, db bun.IDB, id int64) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.NewSelect().Model(&tx).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func GetTransactionsByWallet(ctx context.Context, db bun.IDB, walletID int64, limit, offset int) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := db.NewSelect().Model(&txs).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// SumTransactionsByWallet audits the conservation invariant: the signed sum
// of a wallet's ledger rows must equal its current free balance, per ledger.
func SumTransactionsByWallet(ctx context.Context, db bun.IDB, walletID int64, types []string) (int, error) {
	var sum sql.NullInt64
	err := db.NewSelect().
		ColumnExpr("SUM(amount)").
		TableExpr(`"transaction"`).
		Where("wallet_id = ?", walletID).
		Where("type IN (?)", bun.In(types)).
		Scan(ctx, &sum)
	if err != nil {
		return 0, err
	}

	return int(sum.Int64), nil
}
