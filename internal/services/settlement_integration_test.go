package services

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"daredo/internal/datastore"
	"daredo/internal/interfaces"
	"daredo/internal/models"
	"daredo/internal/pkg/caching"
	"daredo/internal/rules"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Integration tests against real Postgres and Redis instances. Skipped
// unless TEST_DB_DSN and TEST_REDIS_ADDR are set, e.g.
//
//	TEST_DB_DSN=postgres://...  TEST_REDIS_ADDR=localhost:6379  go test ./internal/services/

type staticTiers struct {
	tier rules.Tier
}

func (s staticTiers) TierOf(ctx context.Context, userID string) (rules.Tier, error) {
	return s.tier, nil
}

func newSettlementHarness(t *testing.T, tier rules.Tier) *ServiceSettlement {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	addr := os.Getenv("TEST_REDIS_ADDR")
	if dsn == "" || addr == "" {
		t.Skip("TEST_DB_DSN and TEST_REDIS_ADDR not set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		//nolint:errcheck
		db.Close()
	})

	ctx := context.Background()
	for _, create := range []func(context.Context, *bun.DB) error{
		datastore.CreateTableUser,
		datastore.CreateTableWallet,
		datastore.CreateTableTransaction,
		datastore.CreateTableContract,
		datastore.CreateTableSubmission,
		datastore.CreateTableStreakInsurance,
		datastore.CreateTableUserBadge,
		datastore.CreateTableReward,
		datastore.CreateTablePlatform,
	} {
		require.NoError(t, create(ctx, db))
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		//nolint:errcheck
		client.Close()
	})

	cache, err := caching.NewCacheRedis(client, false)
	require.NoError(t, err)

	injector := do.New()
	do.ProvideValue(injector, db)
	do.ProvideValue(injector, redsync.New(goredis.NewPool(client)))
	do.ProvideValue[caching.Cache](injector, cache)
	do.ProvideValue[interfaces.TierProvider](injector, staticTiers{tier})

	service, err := NewServiceSettlement(injector)
	require.NoError(t, err)
	return service
}

func seedUser(t *testing.T, db *bun.DB, tier rules.Tier) string {
	t.Helper()

	userID := uuid.NewString()
	_, err := datastore.CreateUser(context.Background(), db, &models.User{
		ID:               userID,
		Username:         userID,
		Role:             models.RoleUser,
		SubscriptionTier: string(tier),
	})
	require.NoError(t, err)
	return userID
}

func TestReviewSubmissionSettlesExactlyOnce(t *testing.T) {
	service := newSettlementHarness(t, rules.TierPro)
	ctx := context.Background()
	userID := seedUser(t, service.postgresDB, rules.TierPro)

	require.NoError(t, service.GrantMonthlyBonus(ctx, userID, "2026-08"))

	contract, err := service.Stake(ctx, userID, "read 20 pages", 30, "21:00", 400, 0)
	require.NoError(t, err)

	submission := &models.Submission{
		ID:         uuid.NewString(),
		ContractID: contract.ID,
		Status:     models.SubmissionPending,
	}
	require.NoError(t, datastore.InsertSubmission(ctx, service.postgresDB, submission))

	result, err := service.ReviewSubmission(ctx, submission.ID, models.SubmissionApproved, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.NewStreak)
	require.Equal(t, rules.PointsPerSubmission(rules.TierPro), result.PointsEarned)
	require.False(t, result.ContractCompleted)

	wallet, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
	require.NoError(t, err)

	_, err = service.ReviewSubmission(ctx, submission.ID, models.SubmissionApproved, "")
	require.ErrorContains(t, err, ErrAlreadyReviewed.Error())

	// the rejected second pass left no trace
	after, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
	require.NoError(t, err)
	require.Equal(t, wallet.Points, after.Points)
	require.Equal(t, wallet.LockedPoints, after.LockedPoints)
	require.Equal(t, wallet.Streak, after.Streak)

	// conservation: signed ledger rows sum to the free balance
	sum, err := datastore.SumTransactionsByWallet(ctx, service.postgresDB, after.ID, pointsLedgerTypes)
	require.NoError(t, err)
	require.Equal(t, after.Points, sum)
	require.Equal(t, 400, after.LockedPoints)
}

func TestStakeBeyondBalanceLeavesNoTrace(t *testing.T) {
	service := newSettlementHarness(t, rules.TierFree)
	ctx := context.Background()
	userID := seedUser(t, service.postgresDB, rules.TierFree)

	_, err := service.Stake(ctx, userID, "meditate", 7, "07:00", 100, 0)
	require.ErrorContains(t, err, ErrInsufficientPoints.Error())

	wallet, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
	require.NoError(t, err)
	require.Zero(t, wallet.Points)
	require.Zero(t, wallet.LockedPoints)

	sum, err := datastore.SumTransactionsByWallet(ctx, service.postgresDB, wallet.ID, pointsLedgerTypes)
	require.NoError(t, err)
	require.Zero(t, sum)

	active, err := datastore.CountActiveContractsByUser(ctx, service.postgresDB, userID)
	require.NoError(t, err)
	require.Zero(t, active)
}

func TestAwardBadgesIsIdempotent(t *testing.T) {
	service := newSettlementHarness(t, rules.TierFree)
	ctx := context.Background()
	userID := seedUser(t, service.postgresDB, rules.TierFree)

	facts := BadgeFacts{ApprovedSubmissions: 1, Streak: 7}

	first, err := awardBadges(ctx, service.postgresDB, userID, facts)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{models.BadgeFirstBlood, models.BadgeWeekWarrior}, first)

	second, err := awardBadges(ctx, service.postgresDB, userID, facts)
	require.NoError(t, err)
	require.Empty(t, second)

	badges, err := datastore.ListBadgesByUser(ctx, service.postgresDB, userID)
	require.NoError(t, err)
	require.Len(t, badges, 2)
}

func TestRefundWithdrawCreditsOnce(t *testing.T) {
	service := newSettlementHarness(t, rules.TierFree)
	ctx := context.Background()
	userID := seedUser(t, service.postgresDB, rules.TierFree)

	_, err := service.CreditExternalPayment(ctx, userID, 500, "topup-"+userID)
	require.NoError(t, err)

	withdraw, err := service.RequestWithdraw(ctx, userID, 200)
	require.NoError(t, err)

	refund, err := service.RefundWithdraw(ctx, withdraw.ID)
	require.NoError(t, err)

	again, err := service.RefundWithdraw(ctx, withdraw.ID)
	require.NoError(t, err)
	require.Equal(t, refund.ID, again.ID)

	wallet, err := datastore.GetOrCreateWallet(ctx, service.postgresDB, userID)
	require.NoError(t, err)
	require.Equal(t, 500, wallet.Balance)

	sum, err := datastore.SumTransactionsByWallet(ctx, service.postgresDB, wallet.ID, moneyLedgerTypes)
	require.NoError(t, err)
	require.Equal(t, wallet.Balance, sum)
}
