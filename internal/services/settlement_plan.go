package services

import (
	"time"

	"daredo/internal/rules"
)

// approvalPayout is everything one approved submission credits. The ledger
// rows and the balance adjustments in settleApproval are both derived from
// this, so they cannot drift apart.
type approvalPayout struct {
	NewStreak       int
	PointsEarned    int
	CompletionBonus int
	StakeReturn     rules.StakeReturn
}

// planApprovalPayout computes the payout of an approval: the advanced
// streak, the daily award at the streak's rate and, when the approval
// completes the contract, the completion bonus and the stake release.
func planApprovalPayout(tier rules.Tier, lastActiveAt *time.Time, now time.Time, currentStreak, insuredDays, pointsStaked int, completed bool) approvalPayout {
	newStreak, _ := NextStreak(lastActiveAt, now, currentStreak, insuredDays)

	payout := approvalPayout{
		NewStreak:    newStreak,
		PointsEarned: rules.CalculatePoints(tier, newStreak),
	}

	if completed {
		payout.CompletionBonus = rules.CompletionBonus(tier)
		if pointsStaked > 0 {
			payout.StakeReturn = rules.CalculateStakeReturn(tier, pointsStaked)
		}
	}

	return payout
}
