package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Wallet keeps two ledgers per user, points and money, each split into a
// free balance and a locked (escrowed) balance. Balances only move together
// with a Transaction row written in the same database transaction.
type Wallet struct {
	bun.BaseModel `bun:"table:wallet"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID        string     `bun:"user_id" json:"user_id"`
	Points        int        `bun:"points" json:"points"`
	LockedPoints  int        `bun:"locked_points" json:"locked_points"`
	Balance       int        `bun:"balance" json:"balance"`
	LockedBalance int        `bun:"locked_balance" json:"locked_balance"`
	Streak        int        `bun:"streak" json:"streak"`
	LastActiveAt  *time.Time `bun:"last_active_at" json:"last_active_at"`
	CreatedAt     time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at" json:"updated_at"`
}

type WalletSummary struct {
	Points        int `json:"points"`
	LockedPoints  int `json:"locked_points"`
	Balance       int `json:"balance"`
	LockedBalance int `json:"locked_balance"`
	Streak        int `json:"streak"`
}
