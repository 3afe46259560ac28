package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PlatformTxSubscriptionIncome = "subscription_income"
	PlatformTxStakeForfeit       = "stake_forfeit"
)

// PlatformWallet is a singleton row mirroring the user wallet conservation
// invariant for platform revenue: the balance only moves together with a
// PlatformTransaction row in the same database transaction.
type PlatformWallet struct {
	bun.BaseModel `bun:"table:platform_wallet"`
	ID            int64     `bun:"id,pk" json:"id"`
	Balance       int       `bun:"balance" json:"balance"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

type PlatformTransaction struct {
	bun.BaseModel `bun:"table:platform_transaction"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Type          string    `bun:"type" json:"type"`
	Amount        int       `bun:"amount" json:"amount"`
	Description   string    `bun:"description" json:"description"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
