package datastore

import (
	"context"
	"errors"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

// ErrInvalidTransition is returned when a contract status change is not the
// one-way active -> {success, failed} edge, including any write against a
// terminal contract.
var ErrInvalidTransition = errors.New("invalid contract transition")

// ErrContractNotActive is returned when progress is recorded against a
// contract that already settled.
var ErrContractNotActive = errors.New("contract not active")

func CreateTableContract(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Contract)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Contract)(nil)).Index("index_contract_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Contract)(nil)).Index("index_contract_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertContract(ctx context.Context, db bun.IDB, contract *models.Contract) error {
	_, err := db.NewInsert().Model(contract).Exec(ctx)
	return err
}

func FindContractByID(ctx context.Context, db bun.IDB, id int64) (*models.Contract, error) {
	var contract models.Contract
	err := db.NewSelect().Model(&contract).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindContractForUpdate locks the contract row for the enclosing transaction.
func FindContractForUpdate(ctx context.Context, db bun.IDB, id int64) (*models.Contract, error) {
	var contract models.Contract
	err := db.NewSelect().Model(&contract).Where("id = ?", id).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func ListContractsByUser(ctx context.Context, db bun.IDB, userID string, limit, offset int) ([]*models.Contract, error) {
	var contracts []*models.Contract
	err := db.NewSelect().Model(&contracts).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func CountActiveContractsByUser(ctx context.Context, db bun.IDB, userID string) (int, error) {
	return db.NewSelect().Model((*models.Contract)(nil)).
		Where("user_id = ?", userID).
		Where("status = ?", models.ContractActive).
		Count(ctx)
}

func CountContractsByUserAndStatus(ctx context.Context, db bun.IDB, userID string, status string) (int, error) {
	return db.NewSelect().Model((*models.Contract)(nil)).
		Where("user_id = ?", userID).
		Where("status = ?", status).
		Count(ctx)
}

// IncrementContractProgress adds one completed day and reports whether the
// contract just reached its full duration. Fails when the contract is not
// active anymore.
func IncrementContractProgress(ctx context.Context, db bun.IDB, id int64) (completed bool, err error) {
	contract := &models.Contract{ID: id}
	res, err := db.NewUpdate().Model(contract).
		Set("days_completed = days_completed + 1").
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("status = ?", models.ContractActive).
		Returning("days_completed, duration_days").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, ErrContractNotActive
	}

	return contract.DaysCompleted == contract.DurationDays, nil
}

// SetContractStatus performs the one-way active -> {success, failed}
// transition. Any other edge, including writes against a terminal contract,
// fails.
func SetContractStatus(ctx context.Context, db bun.IDB, id int64, status string) error {
	if status != models.ContractSuccess && status != models.ContractFailed {
		return ErrInvalidTransition
	}

	res, err := db.NewUpdate().Model((*models.Contract)(nil)).
		Set("status = ?", status).
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("status = ?", models.ContractActive).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}

	return nil
}
