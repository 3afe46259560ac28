package services

import (
	"errors"
	"fmt"
	"time"
)

var ErrWalletLock = errors.New("wallet locked")

var ErrContractLimitReached = errors.New("active contract limit reached")
var ErrInsufficientPoints = errors.New("insufficient points")
var ErrInsufficientBalance = errors.New("insufficient balance")
var ErrAlreadyReviewed = errors.New("submission already reviewed")
var ErrNotContractOwner = errors.New("not the contract owner")
var ErrContractNotActive = errors.New("contract not active")
var ErrInsuranceNotAvailable = errors.New("insurance not available on this tier")
var ErrInsuranceLimitReached = errors.New("insurance limit reached for this contract")
var ErrRewardNotAvailable = errors.New("reward not available")
var ErrRewardOutOfStock = errors.New("reward out of stock")
var ErrNothingStaked = errors.New("contract needs a points or money stake")
var ErrInvalidDecision = errors.New("decision must be approved or rejected")
var ErrSubmissionPending = errors.New("a submission is already awaiting review")
var ErrNotWithdrawPending = errors.New("transaction is not a pending withdrawal")

const (
	CACHE_TTL_5_SECONDS = 5 * time.Second
	CACHE_TTL_1_MIN     = 1 * time.Minute
	CACHE_TTL_5_MINS    = 5 * time.Minute
	CACHE_TTL_1_HOUR    = 1 * time.Hour

	REVIEW_RATE_LIMIT_PER_MINUTE = 60
	REDEEM_RATE_LIMIT_PER_MINUTE = 10

	DEFAULT_PAGE_LIMIT = 20
	MAX_PAGE_LIMIT     = 100
)

func LockKeyWallet(userID string) string {
	return fmt.Sprintf("lock:wallet:%s", userID)
}

// db
func DBKeyRewardCatalog() string {
	return "reward:catalog"
}

func DBKeyPlatformWallet() string {
	return "platform:wallet"
}

func DBKeyWalletSummary(userID string) string {
	return fmt.Sprintf("wallet:summary:%s", userID)
}

func DBKeyUserBadges(userID string) string {
	return fmt.Sprintf("user:%s:badges", userID)
}

func RateKeyReview(reviewerID string) string {
	return fmt.Sprintf("rate:review:%s", reviewerID)
}

func RateKeyRedeem(userID string) string {
	return fmt.Sprintf("rate:redeem:%s", userID)
}
