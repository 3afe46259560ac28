package services

import (
	"context"
	"database/sql"
	"time"

	"daredo/internal/datastore"
	"daredo/internal/datastore/redis_store"
	"daredo/internal/models"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceContract covers contract and submission reads plus the creation of
// pending submissions. Everything that moves value lives in ServiceSettlement.
type ServiceContract struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
}

func NewServiceContract(container *do.Injector) (*ServiceContract, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	return &ServiceContract{container, redisDB, postgresDB, readonlyPostgresDB}, nil
}

func (service *ServiceContract) GetContract(ctx context.Context, contractID int64, userID string) (*models.Contract, error) {
	contract, err := datastore.FindContractByID(ctx, service.readonlyPostgresDB, contractID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}
	if contract.UserID != userID {
		return nil, errorx.Wrap(ErrNotContractOwner, errorx.Authn)
	}

	return contract, nil
}

func (service *ServiceContract) ListContracts(ctx context.Context, userID string, limit, offset int) ([]*models.Contract, error) {
	return datastore.ListContractsByUser(ctx, service.readonlyPostgresDB, userID, limit, offset)
}

// CreateSubmission records today's proof, stamped with the platform daily
// code, in pending state. One pending submission per contract at a time;
// value only moves when an admin reviews it.
func (service *ServiceContract) CreateSubmission(ctx context.Context, contractID int64, userID string, note string, imageURL string) (*models.Submission, error) {
	contract, err := datastore.FindContractByID(ctx, service.postgresDB, contractID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}
	if contract.UserID != userID {
		return nil, errorx.Wrap(ErrNotContractOwner, errorx.Authn)
	}
	if contract.IsTerminal() {
		return nil, errorx.Wrap(ErrContractNotActive, errorx.Invalid)
	}

	pending, err := datastore.CountPendingSubmissionsByContract(ctx, service.postgresDB, contractID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, errorx.Wrap(ErrSubmissionPending, errorx.Invalid)
	}

	code, err := redis_store.GetOrCreateDailyCode(ctx, service.redisDB, DayString(time.Now()))
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		ID:         uuid.NewString(),
		ContractID: contractID,
		DailyCode:  code.Code,
		Note:       note,
		ImageURL:   imageURL,
		Status:     models.SubmissionPending,
	}

	if err := datastore.InsertSubmission(ctx, service.postgresDB, submission); err != nil {
		return nil, err
	}

	return submission, nil
}

// TodayCode returns the code users stamp on today's proof, minting it on the
// first request of the day.
func (service *ServiceContract) TodayCode(ctx context.Context) (*redis_store.DailyCode, error) {
	day := DayString(time.Now())

	code, err := redis_store.GetDailyCode(ctx, service.redisDB, day)
	if err == redis.Nil {
		return redis_store.GetOrCreateDailyCode(ctx, service.redisDB, day)
	}
	if err != nil {
		return nil, err
	}

	return code, nil
}

func (service *ServiceContract) ListPendingSubmissions(ctx context.Context, limit, offset int) ([]*models.Submission, error) {
	return datastore.ListPendingSubmissions(ctx, service.readonlyPostgresDB, limit, offset)
}
