package services

import (
	"context"
	"database/sql"

	"daredo/internal/datastore"
	"daredo/internal/models"
	"daredo/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// Free-balance ledger types per asset. Forfeiture rows are deliberately
// absent: they document the destruction of locked value and never touch a
// free balance, so they stay out of the free-balance conservation sum.
var pointsLedgerTypes = []string{
	models.TxPointsStaked, models.TxPointsReturned,
	models.TxPointsEarned, models.TxStakeBonus, models.TxStreakBonus,
	models.TxPointsRedeemed, models.TxStakeCancelled, models.TxMonthlyBonus,
}

var moneyLedgerTypes = []string{
	models.TxTopup, models.TxWithdrawPending, models.TxWithdrawRefund,
	models.TxMoneyStaked, models.TxMoneyReturned,
}

// ServiceWallet is the read side of the ledger. All mutation goes through
// ServiceSettlement.
type ServiceWallet struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceWallet(container *do.Injector) (*ServiceWallet, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceWallet{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceWallet) GetSummary(ctx context.Context, userID string) (*models.WalletSummary, error) {
	callback := func() (*models.WalletSummary, error) {
		wallet, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
		if err != nil {
			return nil, err
		}
		return &models.WalletSummary{
			Points:        wallet.Points,
			LockedPoints:  wallet.LockedPoints,
			Balance:       wallet.Balance,
			LockedBalance: wallet.LockedBalance,
			Streak:        wallet.Streak,
		}, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyWalletSummary(userID), CACHE_TTL_5_SECONDS, callback)
}

func (service *ServiceWallet) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, error) {
	wallet, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, err
	}

	return datastore.GetTransactionsByWallet(ctx, service.readonlyPostgresDB, wallet.ID, limit, offset)
}

func (service *ServiceWallet) GetBadges(ctx context.Context, userID string) ([]*models.UserBadge, error) {
	callback := func() ([]*models.UserBadge, error) {
		return datastore.ListBadgesByUser(ctx, service.readonlyPostgresDB, userID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserBadges(userID), CACHE_TTL_5_MINS, callback)
}

// PlatformSummary is the admin view of the platform wallet. Forfeitures and
// subscription income both land here, so the cache window stays short.
func (service *ServiceWallet) PlatformSummary(ctx context.Context) (*models.PlatformWallet, error) {
	callback := func() (*models.PlatformWallet, error) {
		return datastore.GetPlatformWallet(ctx, service.readonlyPostgresDB)
	}

	return caching.UseCache(ctx, service.cache, DBKeyPlatformWallet(), CACHE_TTL_1_MIN, callback)
}

type LedgerAudit struct {
	PointsSum     int  `json:"points_sum"`
	Points        int  `json:"points"`
	MoneySum      int  `json:"money_sum"`
	Balance       int  `json:"balance"`
	PointsBalance bool `json:"points_balanced"`
	MoneyBalance  bool `json:"money_balanced"`
}

// Audit checks the conservation invariant: the signed sum of all ledger rows
// for a wallet equals its current free balance, per ledger. Wallets start at
// zero, so the delta since creation is the balance itself.
func (service *ServiceWallet) Audit(ctx context.Context, userID string) (*LedgerAudit, error) {
	wallet, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	pointsSum, err := datastore.SumTransactionsByWallet(ctx, service.postgresDB, wallet.ID, pointsLedgerTypes)
	if err != nil {
		return nil, err
	}
	moneySum, err := datastore.SumTransactionsByWallet(ctx, service.postgresDB, wallet.ID, moneyLedgerTypes)
	if err != nil {
		return nil, err
	}

	return &LedgerAudit{
		PointsSum:     pointsSum,
		Points:        wallet.Points,
		MoneySum:      moneySum,
		Balance:       wallet.Balance,
		PointsBalance: pointsSum == wallet.Points,
		MoneyBalance:  moneySum == wallet.Balance,
	}, nil
}
