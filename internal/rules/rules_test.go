package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePoints(t *testing.T) {
	cases := []struct {
		name   string
		tier   Tier
		streak int
		want   int
	}{
		{"free below threshold", TierFree, 0, 10},
		{"free at threshold", TierFree, 7, 15},
		{"starter below threshold", TierStarter, 6, 25},
		{"starter at threshold", TierStarter, 7, 50},
		{"pro below threshold", TierPro, 1, 50},
		{"pro at threshold", TierPro, 7, 150},
		{"pro far past threshold", TierPro, 100, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculatePoints(tc.tier, tc.streak))
		})
	}
}

func TestCalculateStakeReturn(t *testing.T) {
	cases := []struct {
		name       string
		tier       Tier
		staked     int
		wantReturn int
		wantBonus  int
	}{
		{"free has no bonus", TierFree, 100, 100, 0},
		{"starter 10 percent", TierStarter, 100, 110, 10},
		{"pro 25 percent", TierPro, 200, 250, 50},
		{"pro rounds", TierPro, 10, 13, 3},
		{"zero stake", TierPro, 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateStakeReturn(tc.tier, tc.staked)
			assert.Equal(t, tc.wantReturn, got.ReturnAmount)
			assert.Equal(t, tc.wantBonus, got.BonusAmount)
		})
	}
}

func TestCancelRefund(t *testing.T) {
	assert.Equal(t, 50, CancelRefund(100))
	assert.Equal(t, 50, CancelRefund(101)) // floor
	assert.Equal(t, 0, CancelRefund(1))
	assert.Equal(t, 0, CancelRefund(0))
}

func TestContractLimit(t *testing.T) {
	limit, limited := ContractLimit(TierFree)
	assert.True(t, limited)
	assert.Equal(t, 1, limit)

	limit, limited = ContractLimit(TierStarter)
	assert.True(t, limited)
	assert.Equal(t, 3, limit)

	_, limited = ContractLimit(TierPro)
	assert.False(t, limited)
}

func TestInsuranceLimit(t *testing.T) {
	assert.Equal(t, 0, InsuranceLimit(TierFree))
	assert.Equal(t, 1, InsuranceLimit(TierStarter))
	assert.Equal(t, 3, InsuranceLimit(TierPro))
}

// Full payout of a pro-tier 7-day contract with a 200 point stake, entered
// at streak 7 so the multiplier is active throughout: 7 daily awards, the
// completion bonus, and the stake return with its 25% bonus.
func TestProContractPayoutScenario(t *testing.T) {
	total := 0
	for day := 1; day <= 7; day++ {
		earned := CalculatePoints(TierPro, 7+day-1)
		assert.Equal(t, 150, earned)
		total += earned
	}

	total += CompletionBonus(TierPro)

	ret := CalculateStakeReturn(TierPro, 200)
	assert.Equal(t, 250, ret.ReturnAmount)
	total += ret.ReturnAmount

	assert.Equal(t, 1800, total)
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPro, ParseTier("pro"))
	assert.Equal(t, TierStarter, ParseTier("starter"))
	assert.Equal(t, TierFree, ParseTier("free"))
	assert.Equal(t, TierFree, ParseTier("gold"))
	assert.Equal(t, TierFree, ParseTier(""))
}
