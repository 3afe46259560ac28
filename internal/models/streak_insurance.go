package models

import (
	"time"

	"github.com/uptrace/bun"
)

// StreakInsurance rows are the unit of consumption: one row is one covered
// day. The count of rows for a (wallet, contract) pair is checked against
// the tier limit before a new one is inserted.
type StreakInsurance struct {
	bun.BaseModel `bun:"table:streak_insurance"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	WalletID      int64     `bun:"wallet_id" json:"wallet_id"`
	ContractID    int64     `bun:"contract_id" json:"contract_id"`
	UsedAt        time.Time `bun:"used_at,default:current_timestamp" json:"used_at"`
}
