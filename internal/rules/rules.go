// Package rules is the pure lookup table for the points economy: tier rates,
// streak multipliers, bonuses and limits. It holds no state and touches no
// store; everything above it passes tiers in and gets numbers out.
package rules

import "math"

type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
)

const (
	// StreakThresholdDays is the streak length at which the tier multiplier
	// starts applying.
	StreakThresholdDays = 7

	// InsuranceCost is the free-points price of one streak-insurance use,
	// identical for every tier.
	InsuranceCost = 50

	// CancelRefundPercent is the share of a stake returned on explicit
	// cancellation. The remainder is forfeited.
	CancelRefundPercent = 50
)

type tierRates struct {
	pointsPerSubmission int
	streakMultiplier    float64
	completionBonus     int
	stakeBonusPercent   int
	insuranceLimit      int
	contractLimit       int // 0 = unlimited
	monthlyBonus        int
	priceMoney          int
}

var ratesByTier = map[Tier]tierRates{
	TierFree:    {pointsPerSubmission: 10, streakMultiplier: 1.5, completionBonus: 50, stakeBonusPercent: 0, insuranceLimit: 0, contractLimit: 1, monthlyBonus: 0, priceMoney: 0},
	TierStarter: {pointsPerSubmission: 25, streakMultiplier: 2, completionBonus: 200, stakeBonusPercent: 10, insuranceLimit: 1, contractLimit: 3, monthlyBonus: 300, priceMoney: 49},
	TierPro:     {pointsPerSubmission: 50, streakMultiplier: 3, completionBonus: 500, stakeBonusPercent: 25, insuranceLimit: 3, contractLimit: 0, monthlyBonus: 1000, priceMoney: 99},
}

// ParseTier maps an arbitrary string to a known tier, falling back to free.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierStarter, TierPro:
		return Tier(s)
	}
	return TierFree
}

func ratesOf(tier Tier) tierRates {
	rates, ok := ratesByTier[tier]
	if !ok {
		return ratesByTier[TierFree]
	}
	return rates
}

func PointsPerSubmission(tier Tier) int {
	return ratesOf(tier).pointsPerSubmission
}

func StreakMultiplier(tier Tier) float64 {
	return ratesOf(tier).streakMultiplier
}

// CalculatePoints is the per-approval point award: the tier base rate,
// multiplied once the streak reaches the threshold.
func CalculatePoints(tier Tier, streak int) int {
	rates := ratesOf(tier)
	if streak >= StreakThresholdDays {
		return int(math.Round(float64(rates.pointsPerSubmission) * rates.streakMultiplier))
	}
	return rates.pointsPerSubmission
}

func CompletionBonus(tier Tier) int {
	return ratesOf(tier).completionBonus
}

func StakeBonusPercent(tier Tier) int {
	return ratesOf(tier).stakeBonusPercent
}

type StakeReturn struct {
	ReturnAmount int
	BonusAmount  int
}

// CalculateStakeReturn is the payout when a contract with a points stake
// completes: the full stake back plus the tier bonus percent.
func CalculateStakeReturn(tier Tier, staked int) StakeReturn {
	bonus := int(math.Round(float64(staked) * float64(ratesOf(tier).stakeBonusPercent) / 100))
	return StakeReturn{ReturnAmount: staked + bonus, BonusAmount: bonus}
}

// CancelRefund is the free-balance refund on explicit cancellation,
// rounded down. The rest of the stake is forfeited.
func CancelRefund(staked int) int {
	return staked * CancelRefundPercent / 100
}

func InsuranceLimit(tier Tier) int {
	return ratesOf(tier).insuranceLimit
}

// ContractLimit returns the max number of simultaneously active contracts
// and whether a limit applies at all.
func ContractLimit(tier Tier) (int, bool) {
	limit := ratesOf(tier).contractLimit
	return limit, limit > 0
}

func MonthlyBonus(tier Tier) int {
	return ratesOf(tier).monthlyBonus
}

// SubscriptionPriceMoney is the monthly money price of a tier, used by the
// platform income accrual job.
func SubscriptionPriceMoney(tier Tier) int {
	return ratesOf(tier).priceMoney
}
