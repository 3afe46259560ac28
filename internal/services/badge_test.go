package services

import (
	"testing"

	"daredo/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBadges(t *testing.T) {
	cases := []struct {
		name  string
		facts BadgeFacts
		want  []string
	}{
		{
			"nothing earned",
			BadgeFacts{},
			nil,
		},
		{
			"first approval",
			BadgeFacts{ApprovedSubmissions: 1, Streak: 1},
			[]string{models.BadgeFirstBlood},
		},
		{
			"week streak",
			BadgeFacts{ApprovedSubmissions: 7, Streak: 7},
			[]string{models.BadgeFirstBlood, models.BadgeWeekWarrior},
		},
		{
			"month streak includes week",
			BadgeFacts{ApprovedSubmissions: 30, Streak: 30},
			[]string{models.BadgeFirstBlood, models.BadgeWeekWarrior, models.BadgeIronWill},
		},
		{
			"hundred day streak",
			BadgeFacts{ApprovedSubmissions: 100, Streak: 100},
			[]string{models.BadgeFirstBlood, models.BadgeWeekWarrior, models.BadgeIronWill, models.BadgeCentury},
		},
		{
			"first completed contract",
			BadgeFacts{ApprovedSubmissions: 7, Streak: 3, ContractCompleted: true, CompletedContracts: 1},
			[]string{models.BadgeFirstBlood, models.BadgeContractMaster},
		},
		{
			"fifth completed contract",
			BadgeFacts{ApprovedSubmissions: 40, Streak: 2, CompletedContracts: 5},
			[]string{models.BadgeFirstBlood, models.BadgeContractMaster, models.BadgeFiveContracts},
		},
		{
			"point collector",
			BadgeFacts{ApprovedSubmissions: 12, Streak: 4, LifetimePoints: 1000},
			[]string{models.BadgeFirstBlood, models.BadgePointCollector},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateBadges(tc.facts))
		})
	}
}

func TestEvaluateBadgesIsPure(t *testing.T) {
	facts := BadgeFacts{ApprovedSubmissions: 7, Streak: 7, LifetimePoints: 2000}
	first := EvaluateBadges(facts)
	second := EvaluateBadges(facts)
	assert.Equal(t, first, second)
}
