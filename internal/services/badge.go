package services

import (
	"context"

	"daredo/internal/datastore"
	"daredo/internal/models"

	"github.com/uptrace/bun"
)

// BadgeFacts are the post-settlement numbers badge rules run against. They
// are computed after every approval mutation has been applied, inside the
// same transaction.
type BadgeFacts struct {
	ApprovedSubmissions int
	Streak              int
	ContractCompleted   bool
	CompletedContracts  int
	LifetimePoints      int
}

// EvaluateBadges is the stateless rule set: facts in, badge keys out. It
// does not know whether the user already holds a key; the store's
// insert-if-absent makes awarding idempotent.
func EvaluateBadges(facts BadgeFacts) []string {
	var keys []string

	if facts.ApprovedSubmissions >= 1 {
		keys = append(keys, models.BadgeFirstBlood)
	}
	if facts.Streak >= 7 {
		keys = append(keys, models.BadgeWeekWarrior)
	}
	if facts.Streak >= 30 {
		keys = append(keys, models.BadgeIronWill)
	}
	if facts.Streak >= 100 {
		keys = append(keys, models.BadgeCentury)
	}
	if facts.CompletedContracts >= 1 {
		keys = append(keys, models.BadgeContractMaster)
	}
	if facts.CompletedContracts >= 5 {
		keys = append(keys, models.BadgeFiveContracts)
	}
	if facts.LifetimePoints >= 1000 {
		keys = append(keys, models.BadgePointCollector)
	}

	return keys
}

// awardBadges inserts each earned key if absent and returns only the keys
// that were newly awarded.
func awardBadges(ctx context.Context, db bun.IDB, userID string, facts BadgeFacts) ([]string, error) {
	var awarded []string
	for _, key := range EvaluateBadges(facts) {
		inserted, err := datastore.InsertUserBadge(ctx, db, &models.UserBadge{
			UserID:   userID,
			BadgeKey: key,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			awarded = append(awarded, key)
		}
	}

	return awarded, nil
}
