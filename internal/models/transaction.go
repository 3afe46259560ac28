package models

import (
	"time"

	"github.com/uptrace/bun"
)

// points ledger entry types
const (
	TxPointsStaked    = "points_staked"
	TxPointsReturned  = "points_returned"
	TxPointsForfeited = "points_forfeited"
	TxPointsEarned    = "points_earned"
	TxStakeBonus      = "stake_bonus"
	TxStreakBonus     = "streak_bonus"
	TxPointsRedeemed  = "points_redeemed"
	TxStakeCancelled  = "stake_cancelled"
	TxMonthlyBonus    = "monthly_bonus"
)

// money ledger entry types
const (
	TxTopup           = "topup"
	TxWithdrawPending = "withdraw_pending"
	TxWithdrawRefund  = "withdraw_refund"
	TxMoneyStaked     = "money_staked"
	TxMoneyReturned   = "money_returned"
	TxMoneyForfeited  = "money_forfeited"
)

// Transaction is append-only. Amount is signed: negative when value leaves
// the free balance, positive when it enters. ExternalReference is set only
// by payment-provider credits and carries a unique index so a redelivered
// webhook cannot credit twice.
type Transaction struct {
	bun.BaseModel     `bun:"table:transaction"`
	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	WalletID          int64     `bun:"wallet_id" json:"wallet_id"`
	ContractID        *int64    `bun:"contract_id" json:"contract_id"`
	Type              string    `bun:"type" json:"type"`
	Amount            int       `bun:"amount" json:"amount"`
	Description       string    `bun:"description" json:"description"`
	ExternalReference *string   `bun:"external_reference" json:"external_reference,omitempty"`
	CreatedAt         time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

// IsMoneyType reports whether the entry belongs to the money ledger;
// every other type belongs to the points ledger.
func IsMoneyType(txType string) bool {
	switch txType {
	case TxTopup, TxWithdrawPending, TxWithdrawRefund, TxMoneyStaked, TxMoneyReturned, TxMoneyForfeited:
		return true
	}
	return false
}
