package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RedemptionPending   = "pending"
	RedemptionShipped   = "shipped"
	RedemptionCancelled = "cancelled"
)

type Reward struct {
	bun.BaseModel `bun:"table:reward"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name" json:"name"`
	Description   string    `bun:"description" json:"description"`
	PointsCost    int       `bun:"points_cost" json:"points_cost"`
	Stock         *int      `bun:"stock" json:"stock"` // nil = unlimited
	Active        bool      `bun:"active,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

type RewardRedemption struct {
	bun.BaseModel `bun:"table:reward_redemption"`
	ID            string    `bun:"id,pk" json:"id"`
	RewardID      int64     `bun:"reward_id" json:"reward_id"`
	UserID        string    `bun:"user_id" json:"user_id"`
	Address       string    `bun:"address" json:"address"`
	Status        string    `bun:"status,default:'pending'" json:"status"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
