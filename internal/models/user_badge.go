package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BadgeFirstBlood     = "first_blood"
	BadgeWeekWarrior    = "week_warrior"
	BadgeIronWill       = "iron_will"
	BadgeCentury        = "century"
	BadgeContractMaster = "contract_master"
	BadgeFiveContracts  = "five_contracts"
	BadgePointCollector = "point_collector"
)

// UserBadge is unique on (user_id, badge_key); awarding is insert-if-absent
// so the same milestone can be evaluated any number of times.
type UserBadge struct {
	bun.BaseModel `bun:"table:user_badge"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        string    `bun:"user_id" json:"user_id"`
	BadgeKey      string    `bun:"badge_key" json:"badge_key"`
	EarnedAt      time.Time `bun:"earned_at,default:current_timestamp" json:"earned_at"`
}
