package services

import (
	"testing"
	"time"

	"daredo/internal/rules"

	"github.com/stretchr/testify/require"
)

func TestPlanApprovalPayout(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	threeDaysAgo := now.AddDate(0, 0, -3)

	tests := []struct {
		name          string
		tier          rules.Tier
		lastActiveAt  *time.Time
		currentStreak int
		insuredDays   int
		pointsStaked  int
		completed     bool
		want          approvalPayout
	}{
		{
			name: "first approval ever on free tier",
			tier: rules.TierFree,
			want: approvalPayout{NewStreak: 1, PointsEarned: 10},
		},
		{
			name:          "consecutive day below threshold",
			tier:          rules.TierStarter,
			lastActiveAt:  &yesterday,
			currentStreak: 3,
			want:          approvalPayout{NewStreak: 4, PointsEarned: 25},
		},
		{
			name:          "multiplier kicks in at the threshold",
			tier:          rules.TierPro,
			lastActiveAt:  &yesterday,
			currentStreak: 6,
			want:          approvalPayout{NewStreak: 7, PointsEarned: 150},
		},
		{
			name:          "insured gap keeps the streak alive",
			tier:          rules.TierStarter,
			lastActiveAt:  &threeDaysAgo,
			currentStreak: 9,
			insuredDays:   2,
			want:          approvalPayout{NewStreak: 10, PointsEarned: 50},
		},
		{
			name:          "uninsured gap resets to base rate",
			tier:          rules.TierPro,
			lastActiveAt:  &threeDaysAgo,
			currentStreak: 20,
			want:          approvalPayout{NewStreak: 1, PointsEarned: 50},
		},
		{
			name:          "completing approval releases the stake with bonus",
			tier:          rules.TierPro,
			lastActiveAt:  &yesterday,
			currentStreak: 29,
			pointsStaked:  1000,
			completed:     true,
			want: approvalPayout{
				NewStreak:       30,
				PointsEarned:    150,
				CompletionBonus: 500,
				StakeReturn:     rules.StakeReturn{ReturnAmount: 1250, BonusAmount: 250},
			},
		},
		{
			name:          "completion without a points stake pays only the bonus",
			tier:          rules.TierFree,
			lastActiveAt:  &yesterday,
			currentStreak: 1,
			completed:     true,
			want:          approvalPayout{NewStreak: 2, PointsEarned: 10, CompletionBonus: 50},
		},
		{
			name:          "staked but not yet complete pays the day only",
			tier:          rules.TierStarter,
			lastActiveAt:  &yesterday,
			currentStreak: 1,
			pointsStaked:  500,
			want:          approvalPayout{NewStreak: 2, PointsEarned: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planApprovalPayout(tt.tier, tt.lastActiveAt, now, tt.currentStreak, tt.insuredDays, tt.pointsStaked, tt.completed)
			require.Equal(t, tt.want, got)

			// the released stake plus its bonus is exactly what the free
			// balance is credited, so ledger rows and balances cannot diverge
			if tt.completed && tt.pointsStaked > 0 {
				require.Equal(t, tt.pointsStaked+got.StakeReturn.BonusAmount, got.StakeReturn.ReturnAmount)
			}
		})
	}
}
