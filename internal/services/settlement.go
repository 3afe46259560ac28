package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daredo/internal/datastore"
	"daredo/internal/interfaces"
	"daredo/internal/models"
	"daredo/internal/pkg/caching"
	"daredo/internal/rules"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceSettlement owns every mutation of wallets, contracts and ledgers.
// Each public operation takes the owner's wallet mutex, then runs exactly
// one serializable database transaction: either every effect lands or none
// does. No other code path may move value.
type ServiceSettlement struct {
	container  *do.Injector
	postgresDB *bun.DB
	rs         *redsync.Redsync
	cache      caching.Cache
	tiers      interfaces.TierProvider
}

func NewServiceSettlement(container *do.Injector) (*ServiceSettlement, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	tiers, err := do.Invoke[interfaces.TierProvider](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSettlement{container, postgresDB, rs, cache, tiers}, nil
}

var txSerializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

func (service *ServiceSettlement) lockWallet(userID string) (*redsync.Mutex, error) {
	mutex := service.rs.NewMutex(LockKeyWallet(userID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrWalletLock, errorx.Service)
	}
	return mutex, nil
}

func (service *ServiceSettlement) clearWalletCache(ctx context.Context, userID string) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyWalletSummary(userID))
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserBadges(userID))
}

// Stake opens a contract and escrows the pledged points and money. The
// contract row and the balance locks land together or not at all.
func (service *ServiceSettlement) Stake(ctx context.Context, userID, goal string, durationDays int, deadline string, pointsStaked, moneyStaked int) (*models.Contract, error) {
	if pointsStaked < 0 || moneyStaked < 0 || durationDays <= 0 {
		return nil, errorx.Wrap(fmt.Errorf("invalid stake parameters"), errorx.Validation)
	}
	if pointsStaked == 0 && moneyStaked == 0 {
		return nil, errorx.Wrap(ErrNothingStaked, errorx.Validation)
	}

	tier, err := service.tiers.TierOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	mutex, err := service.lockWallet(userID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	contract := &models.Contract{
		UserID:       userID,
		Goal:         goal,
		DurationDays: durationDays,
		Deadline:     deadline,
		PointsStaked: pointsStaked,
		MoneyStaked:  moneyStaked,
		Status:       models.ContractActive,
		UpdatedAt:    time.Now(),
	}

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		if limit, limited := rules.ContractLimit(tier); limited {
			active, err := datastore.CountActiveContractsByUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			if active >= limit {
				return errorx.Wrap(ErrContractLimitReached, errorx.Invalid)
			}
		}

		wallet, err := datastore.GetOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		if err := datastore.InsertContract(ctx, tx, contract); err != nil {
			return err
		}

		if pointsStaked > 0 {
			if err := datastore.AdjustPoints(ctx, tx, wallet.ID, -pointsStaked, pointsStaked); err != nil {
				if err == datastore.ErrInsufficientFunds {
					return errorx.Wrap(ErrInsufficientPoints, errorx.Invalid)
				}
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxPointsStaked,
				Amount:      -pointsStaked,
				Description: fmt.Sprintf("staked %d points on %q", pointsStaked, goal),
			})
			if err != nil {
				return err
			}
		}

		if moneyStaked > 0 {
			if err := datastore.AdjustMoney(ctx, tx, wallet.ID, -moneyStaked, moneyStaked); err != nil {
				if err == datastore.ErrInsufficientFunds {
					return errorx.Wrap(ErrInsufficientBalance, errorx.Invalid)
				}
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxMoneyStaked,
				Amount:      -moneyStaked,
				Description: fmt.Sprintf("escrowed %d on %q", moneyStaked, goal),
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, userID)
	return contract, nil
}

type ReviewResult struct {
	PointsEarned      int      `json:"points_earned"`
	NewStreak         int      `json:"new_streak"`
	ContractCompleted bool     `json:"contract_completed"`
	BadgesAwarded     []string `json:"badges_awarded"`
}

// ReviewSubmission settles one proof-of-work decision. The pending
// precondition is re-checked under a row lock inside the transaction, so a
// second review of the same submission fails with zero ledger effect.
func (service *ServiceSettlement) ReviewSubmission(ctx context.Context, submissionID string, decision string, reviewerNote string) (*ReviewResult, error) {
	if decision != models.SubmissionApproved && decision != models.SubmissionRejected {
		return nil, errorx.Wrap(ErrInvalidDecision, errorx.Validation)
	}

	submission, err := datastore.FindSubmissionByID(ctx, service.postgresDB, submissionID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	contract, err := datastore.FindContractByID(ctx, service.postgresDB, submission.ContractID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	// tier is read fresh for every settlement, never cached on the contract
	tier, err := service.tiers.TierOf(ctx, contract.UserID)
	if err != nil {
		return nil, err
	}

	mutex, err := service.lockWallet(contract.UserID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	now := time.Now()
	result := &ReviewResult{}

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		submission, err := datastore.FindSubmissionForUpdate(ctx, tx, submissionID)
		if err != nil {
			return err
		}
		if submission.Status != models.SubmissionPending {
			return errorx.Wrap(ErrAlreadyReviewed, errorx.Invalid)
		}

		if err := datastore.MarkSubmissionReviewed(ctx, tx, submissionID, decision, reviewerNote, now); err != nil {
			return err
		}

		contract, err := datastore.FindContractForUpdate(ctx, tx, submission.ContractID)
		if err != nil {
			return err
		}

		wallet, err := datastore.GetOrCreateWallet(ctx, tx, contract.UserID)
		if err != nil {
			return err
		}
		wallet, err = datastore.GetWalletForUpdate(ctx, tx, wallet.ID)
		if err != nil {
			return err
		}

		if decision == models.SubmissionRejected {
			return service.settleRejection(ctx, tx, contract, wallet)
		}

		return service.settleApproval(ctx, tx, tier, contract, wallet, now, result)
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, contract.UserID)
	return result, nil
}

func (service *ServiceSettlement) settleApproval(ctx context.Context, tx bun.Tx, tier rules.Tier, contract *models.Contract, wallet *models.Wallet, now time.Time, result *ReviewResult) error {
	insuredDays := 0
	if wallet.LastActiveAt != nil {
		n, err := datastore.CountInsuranceUsesSince(ctx, tx, wallet.ID, contract.ID, *wallet.LastActiveAt)
		if err != nil {
			return err
		}
		insuredDays = n
	}

	completed, err := datastore.IncrementContractProgress(ctx, tx, contract.ID)
	if err != nil {
		if err == datastore.ErrContractNotActive {
			return errorx.Wrap(ErrContractNotActive, errorx.Invalid)
		}
		return err
	}

	payout := planApprovalPayout(tier, wallet.LastActiveAt, now, wallet.Streak, insuredDays, contract.PointsStaked, completed)

	if err := datastore.AdjustPoints(ctx, tx, wallet.ID, payout.PointsEarned, 0); err != nil {
		return err
	}
	if err := datastore.BumpLifetimePoints(ctx, tx, contract.UserID, payout.PointsEarned); err != nil {
		return err
	}
	err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
		WalletID:    wallet.ID,
		ContractID:  &contract.ID,
		Type:        models.TxPointsEarned,
		Amount:      payout.PointsEarned,
		Description: fmt.Sprintf("day approved, streak %d", payout.NewStreak),
	})
	if err != nil {
		return err
	}

	if err := datastore.UpdateWalletStreak(ctx, tx, wallet.ID, payout.NewStreak, Day(now)); err != nil {
		return err
	}

	if completed {
		if err := datastore.SetContractStatus(ctx, tx, contract.ID, models.ContractSuccess); err != nil {
			return err
		}

		if payout.CompletionBonus > 0 {
			if err := datastore.AdjustPoints(ctx, tx, wallet.ID, payout.CompletionBonus, 0); err != nil {
				return err
			}
			if err := datastore.BumpLifetimePoints(ctx, tx, contract.UserID, payout.CompletionBonus); err != nil {
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxStreakBonus,
				Amount:      payout.CompletionBonus,
				Description: fmt.Sprintf("completion bonus for %q", contract.Goal),
			})
			if err != nil {
				return err
			}
		}

		if contract.PointsStaked > 0 {
			if err := datastore.AdjustPoints(ctx, tx, wallet.ID, payout.StakeReturn.ReturnAmount, -contract.PointsStaked); err != nil {
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxPointsReturned,
				Amount:      contract.PointsStaked,
				Description: fmt.Sprintf("stake released for %q", contract.Goal),
			})
			if err != nil {
				return err
			}
			if payout.StakeReturn.BonusAmount > 0 {
				err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
					WalletID:    wallet.ID,
					ContractID:  &contract.ID,
					Type:        models.TxStakeBonus,
					Amount:      payout.StakeReturn.BonusAmount,
					Description: fmt.Sprintf("stake bonus %d%%", rules.StakeBonusPercent(tier)),
				})
				if err != nil {
					return err
				}
			}
		}

		if contract.MoneyStaked > 0 {
			if err := datastore.AdjustMoney(ctx, tx, wallet.ID, contract.MoneyStaked, -contract.MoneyStaked); err != nil {
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxMoneyReturned,
				Amount:      contract.MoneyStaked,
				Description: fmt.Sprintf("escrow released for %q", contract.Goal),
			})
			if err != nil {
				return err
			}
		}
	}

	// badge facts come from the post-mutation counts
	approved, err := datastore.CountSubmissionsByUserAndStatus(ctx, tx, contract.UserID, models.SubmissionApproved)
	if err != nil {
		return err
	}
	completedContracts, err := datastore.CountContractsByUserAndStatus(ctx, tx, contract.UserID, models.ContractSuccess)
	if err != nil {
		return err
	}
	lifetime, err := datastore.GetLifetimePoints(ctx, tx, contract.UserID)
	if err != nil {
		return err
	}

	awarded, err := awardBadges(ctx, tx, contract.UserID, BadgeFacts{
		ApprovedSubmissions: approved,
		Streak:              payout.NewStreak,
		ContractCompleted:   completed,
		CompletedContracts:  completedContracts,
		LifetimePoints:      lifetime,
	})
	if err != nil {
		return err
	}

	result.PointsEarned = payout.PointsEarned
	result.NewStreak = payout.NewStreak
	result.ContractCompleted = completed
	result.BadgesAwarded = awarded
	return nil
}

// settleRejection fails the contract and forfeits the escrow. Forfeited
// points are destroyed; forfeited money moves to the platform wallet so the
// money ledger stays conserved.
func (service *ServiceSettlement) settleRejection(ctx context.Context, tx bun.Tx, contract *models.Contract, wallet *models.Wallet) error {
	if err := datastore.SetContractStatus(ctx, tx, contract.ID, models.ContractFailed); err != nil {
		if err == datastore.ErrInvalidTransition {
			return errorx.Wrap(ErrContractNotActive, errorx.Invalid)
		}
		return err
	}

	if contract.PointsStaked > 0 {
		if err := datastore.AdjustPoints(ctx, tx, wallet.ID, 0, -contract.PointsStaked); err != nil {
			return err
		}
		err := datastore.InsertTransaction(ctx, tx, &models.Transaction{
			WalletID:    wallet.ID,
			ContractID:  &contract.ID,
			Type:        models.TxPointsForfeited,
			Amount:      -contract.PointsStaked,
			Description: fmt.Sprintf("stake forfeited for %q", contract.Goal),
		})
		if err != nil {
			return err
		}
	}

	if contract.MoneyStaked > 0 {
		if err := datastore.AdjustMoney(ctx, tx, wallet.ID, 0, -contract.MoneyStaked); err != nil {
			return err
		}
		err := datastore.InsertTransaction(ctx, tx, &models.Transaction{
			WalletID:    wallet.ID,
			ContractID:  &contract.ID,
			Type:        models.TxMoneyForfeited,
			Amount:      -contract.MoneyStaked,
			Description: fmt.Sprintf("escrow forfeited for %q", contract.Goal),
		})
		if err != nil {
			return err
		}
		err = datastore.CreditPlatform(ctx, tx, models.PlatformTxStakeForfeit, contract.MoneyStaked,
			fmt.Sprintf("forfeited escrow, contract %d", contract.ID))
		if err != nil {
			return err
		}
	}

	return nil
}

// CancelContract lets the owner abandon an active contract. Half of each
// stake comes back to the free balance, the full lock is released. The
// forfeited half of a points stake is destroyed; there is no separate fee
// row, the UI's service-fee line is display copy only.
func (service *ServiceSettlement) CancelContract(ctx context.Context, contractID int64, requesterID string) (*models.Contract, error) {
	contract, err := datastore.FindContractByID(ctx, service.postgresDB, contractID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}
	if contract.UserID != requesterID {
		return nil, errorx.Wrap(ErrNotContractOwner, errorx.Authn)
	}

	mutex, err := service.lockWallet(contract.UserID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		contract, err = datastore.FindContractForUpdate(ctx, tx, contractID)
		if err != nil {
			return err
		}
		if contract.Status != models.ContractActive {
			return errorx.Wrap(ErrContractNotActive, errorx.Invalid)
		}

		if err := datastore.SetContractStatus(ctx, tx, contract.ID, models.ContractFailed); err != nil {
			return err
		}
		contract.Status = models.ContractFailed

		wallet, err := datastore.GetOrCreateWallet(ctx, tx, contract.UserID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		if contract.PointsStaked > 0 {
			refund := rules.CancelRefund(contract.PointsStaked)
			if err := datastore.AdjustPoints(ctx, tx, wallet.ID, refund, -contract.PointsStaked); err != nil {
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxStakeCancelled,
				Amount:      refund,
				Description: fmt.Sprintf("cancelled %q, %d%% of stake refunded", contract.Goal, rules.CancelRefundPercent),
			})
			if err != nil {
				return err
			}
		}

		if contract.MoneyStaked > 0 {
			refund := rules.CancelRefund(contract.MoneyStaked)
			forfeited := contract.MoneyStaked - refund
			if err := datastore.AdjustMoney(ctx, tx, wallet.ID, refund, -contract.MoneyStaked); err != nil {
				return err
			}
			err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
				WalletID:    wallet.ID,
				ContractID:  &contract.ID,
				Type:        models.TxMoneyReturned,
				Amount:      refund,
				Description: fmt.Sprintf("cancelled %q, escrow part refunded", contract.Goal),
			})
			if err != nil {
				return err
			}
			if forfeited > 0 {
				err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
					WalletID:    wallet.ID,
					ContractID:  &contract.ID,
					Type:        models.TxMoneyForfeited,
					Amount:      -forfeited,
					Description: fmt.Sprintf("cancelled %q, escrow part forfeited", contract.Goal),
				})
				if err != nil {
					return err
				}
				err = datastore.CreditPlatform(ctx, tx, models.PlatformTxStakeForfeit, forfeited,
					fmt.Sprintf("cancellation forfeit, contract %d", contract.ID))
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, contract.UserID)
	return contract, nil
}

// UseInsurance buys one covered day for a contract. It never advances
// progress or the streak; it only forgives the gap at the next approval.
func (service *ServiceSettlement) UseInsurance(ctx context.Context, contractID int64, userID string) error {
	tier, err := service.tiers.TierOf(ctx, userID)
	if err != nil {
		return err
	}

	limit := rules.InsuranceLimit(tier)
	if limit == 0 {
		return errorx.Wrap(ErrInsuranceNotAvailable, errorx.Invalid)
	}

	mutex, err := service.lockWallet(userID)
	if err != nil {
		return err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		contract, err := datastore.FindContractForUpdate(ctx, tx, contractID)
		if err == sql.ErrNoRows {
			return errorx.Wrap(err, errorx.NotExist)
		}
		if err != nil {
			return err
		}
		if contract.UserID != userID {
			return errorx.Wrap(ErrNotContractOwner, errorx.Authn)
		}
		if contract.Status != models.ContractActive {
			return errorx.Wrap(ErrContractNotActive, errorx.Invalid)
		}

		wallet, err := datastore.GetOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		used, err := datastore.CountInsuranceUses(ctx, tx, wallet.ID, contract.ID)
		if err != nil {
			return err
		}
		if used >= limit {
			return errorx.Wrap(ErrInsuranceLimitReached, errorx.Invalid)
		}

		if err := datastore.AdjustPoints(ctx, tx, wallet.ID, -rules.InsuranceCost, 0); err != nil {
			if err == datastore.ErrInsufficientFunds {
				return errorx.Wrap(ErrInsufficientPoints, errorx.Invalid)
			}
			return err
		}

		err = datastore.InsertStreakInsurance(ctx, tx, &models.StreakInsurance{
			WalletID:   wallet.ID,
			ContractID: contract.ID,
			UsedAt:     time.Now(),
		})
		if err != nil {
			return err
		}

		return datastore.InsertTransaction(ctx, tx, &models.Transaction{
			WalletID:    wallet.ID,
			ContractID:  &contract.ID,
			Type:        models.TxPointsRedeemed,
			Amount:      -rules.InsuranceCost,
			Description: "streak insurance",
		})
	})
	if err != nil {
		return err
	}

	service.clearWalletCache(ctx, userID)
	return nil
}

// RedeemReward spends free points on a catalog item. Stock and balance are
// both re-checked under row locks inside the transaction.
func (service *ServiceSettlement) RedeemReward(ctx context.Context, rewardID int64, userID string, address string) (*models.RewardRedemption, error) {
	mutex, err := service.lockWallet(userID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	redemption := &models.RewardRedemption{
		ID:       uuid.NewString(),
		RewardID: rewardID,
		UserID:   userID,
		Address:  address,
		Status:   models.RedemptionPending,
	}

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		reward, err := datastore.FindRewardForUpdate(ctx, tx, rewardID)
		if err == sql.ErrNoRows {
			return errorx.Wrap(err, errorx.NotExist)
		}
		if err != nil {
			return err
		}
		if !reward.Active {
			return errorx.Wrap(ErrRewardNotAvailable, errorx.Invalid)
		}
		if reward.Stock != nil && *reward.Stock <= 0 {
			return errorx.Wrap(ErrRewardOutOfStock, errorx.Invalid)
		}

		wallet, err := datastore.GetOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		if err := datastore.AdjustPoints(ctx, tx, wallet.ID, -reward.PointsCost, 0); err != nil {
			if err == datastore.ErrInsufficientFunds {
				return errorx.Wrap(ErrInsufficientPoints, errorx.Invalid)
			}
			return err
		}

		if reward.Stock != nil {
			if err := datastore.DecrementRewardStock(ctx, tx, reward.ID); err != nil {
				return err
			}
		}

		err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
			WalletID:    wallet.ID,
			Type:        models.TxPointsRedeemed,
			Amount:      -reward.PointsCost,
			Description: fmt.Sprintf("redeemed %q", reward.Name),
		})
		if err != nil {
			return err
		}

		return datastore.InsertRewardRedemption(ctx, tx, redemption)
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, userID)
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyRewardCatalog())
	return redemption, nil
}

// CreditExternalPayment applies a payment-provider credit exactly once. The
// ledger row is keyed by the provider reference; a redelivered webhook finds
// the existing row and returns it without touching the balance.
func (service *ServiceSettlement) CreditExternalPayment(ctx context.Context, userID string, amount int, externalReference string) (*models.Transaction, error) {
	if amount <= 0 || externalReference == "" {
		return nil, errorx.Wrap(fmt.Errorf("invalid payment credit"), errorx.Validation)
	}

	mutex, err := service.lockWallet(userID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	transaction := &models.Transaction{
		Type:              models.TxTopup,
		Amount:            amount,
		Description:       fmt.Sprintf("top-up %s", externalReference),
		ExternalReference: &externalReference,
	}

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		wallet, err := datastore.GetOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		transaction.WalletID = wallet.ID
		inserted, err := datastore.InsertExternalTransaction(ctx, tx, transaction)
		if err != nil {
			return err
		}
		if !inserted {
			existing, err := datastore.FindTransactionByExternalReference(ctx, tx, externalReference)
			if err != nil {
				return err
			}
			transaction = existing
			return nil
		}

		return datastore.AdjustMoney(ctx, tx, wallet.ID, amount, 0)
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, userID)
	return transaction, nil
}

// RequestWithdraw moves free money out of the wallet into a pending payout.
func (service *ServiceSettlement) RequestWithdraw(ctx context.Context, userID string, amount int) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, errorx.Wrap(fmt.Errorf("invalid withdraw amount"), errorx.Validation)
	}

	mutex, err := service.lockWallet(userID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	transaction := &models.Transaction{
		Type:        models.TxWithdrawPending,
		Amount:      -amount,
		Description: fmt.Sprintf("withdrawal of %d requested", amount),
	}

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		wallet, err := datastore.GetOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		if err := datastore.AdjustMoney(ctx, tx, wallet.ID, -amount, 0); err != nil {
			if err == datastore.ErrInsufficientFunds {
				return errorx.Wrap(ErrInsufficientBalance, errorx.Invalid)
			}
			return err
		}

		transaction.WalletID = wallet.ID
		return datastore.InsertTransaction(ctx, tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, userID)
	return transaction, nil
}

// RefundWithdraw re-credits a rejected payout. Keying the refund row by the
// original transaction id makes a repeated refund a no-op.
func (service *ServiceSettlement) RefundWithdraw(ctx context.Context, withdrawTxID int64) (*models.Transaction, error) {
	original, err := datastore.FindTransactionByID(ctx, service.postgresDB, withdrawTxID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(err, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}
	if original.Type != models.TxWithdrawPending {
		return nil, errorx.Wrap(ErrNotWithdrawPending, errorx.Invalid)
	}

	wallet, err := datastore.FindWalletByID(ctx, service.postgresDB, original.WalletID)
	if err != nil {
		return nil, err
	}

	mutex, err := service.lockWallet(wallet.UserID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	reference := fmt.Sprintf("withdraw_refund:%d", original.ID)
	amount := -original.Amount

	refund := &models.Transaction{
		WalletID:          original.WalletID,
		Type:              models.TxWithdrawRefund,
		Amount:            amount,
		Description:       fmt.Sprintf("withdrawal %d refunded", original.ID),
		ExternalReference: &reference,
	}

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		if _, err := datastore.GetWalletForUpdate(ctx, tx, original.WalletID); err != nil {
			return err
		}

		inserted, err := datastore.InsertExternalTransaction(ctx, tx, refund)
		if err != nil {
			return err
		}
		if !inserted {
			existing, err := datastore.FindTransactionByExternalReference(ctx, tx, reference)
			if err != nil {
				return err
			}
			refund = existing
			return nil
		}

		return datastore.AdjustMoney(ctx, tx, original.WalletID, amount, 0)
	})
	if err != nil {
		return nil, err
	}

	service.clearWalletCache(ctx, wallet.UserID)
	return refund, nil
}

// GrantMonthlyBonus credits the tier's monthly point allowance once per
// calendar month and books the subscription price as platform income.
func (service *ServiceSettlement) GrantMonthlyBonus(ctx context.Context, userID string, month string) error {
	tier, err := service.tiers.TierOf(ctx, userID)
	if err != nil {
		return err
	}

	bonus := rules.MonthlyBonus(tier)
	if bonus == 0 {
		return nil
	}

	mutex, err := service.lockWallet(userID)
	if err != nil {
		return err
	}
	// nolint:errcheck
	defer mutex.Unlock()

	reference := fmt.Sprintf("monthly_bonus:%s:%s", userID, month)

	err = service.postgresDB.RunInTx(ctx, txSerializable, func(ctx context.Context, tx bun.Tx) error {
		wallet, err := datastore.GetOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := datastore.GetWalletForUpdate(ctx, tx, wallet.ID); err != nil {
			return err
		}

		inserted, err := datastore.InsertExternalTransaction(ctx, tx, &models.Transaction{
			WalletID:          wallet.ID,
			Type:              models.TxMonthlyBonus,
			Amount:            bonus,
			Description:       fmt.Sprintf("%s subscription bonus, %s", tier, month),
			ExternalReference: &reference,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// already granted this month
			return nil
		}

		if err := datastore.AdjustPoints(ctx, tx, wallet.ID, bonus, 0); err != nil {
			return err
		}
		if err := datastore.BumpLifetimePoints(ctx, tx, userID, bonus); err != nil {
			return err
		}

		return datastore.CreditPlatform(ctx, tx, models.PlatformTxSubscriptionIncome,
			rules.SubscriptionPriceMoney(tier),
			fmt.Sprintf("%s subscription, %s, user %s", tier, month, userID))
	})
	if err != nil {
		return err
	}

	service.clearWalletCache(ctx, userID)
	return nil
}
