package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ContractActive  = "active"
	ContractSuccess = "success"
	ContractFailed  = "failed"
)

type Contract struct {
	bun.BaseModel `bun:"table:contract"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        string    `bun:"user_id" json:"user_id"`
	Goal          string    `bun:"goal" json:"goal"`
	DurationDays  int       `bun:"duration_days" json:"duration_days"`
	Deadline      string    `bun:"deadline" json:"deadline"` // "HH:MM", local time of day for daily proof
	PointsStaked  int       `bun:"points_staked" json:"points_staked"`
	MoneyStaked   int       `bun:"money_staked" json:"money_staked"`
	DaysCompleted int       `bun:"days_completed" json:"days_completed"`
	Status        string    `bun:"status,default:'active'" json:"status"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

func (c *Contract) IsTerminal() bool {
	return c.Status == ContractSuccess || c.Status == ContractFailed
}
