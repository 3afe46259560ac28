package services

import (
	"testing"

	"daredo/internal/models"

	"github.com/stretchr/testify/assert"
)

// Every audited type must belong to exactly one ledger, and the partition
// must agree with models.IsMoneyType.
func TestLedgerTypePartition(t *testing.T) {
	seen := map[string]bool{}

	for _, txType := range pointsLedgerTypes {
		assert.False(t, seen[txType], "duplicate type %s", txType)
		assert.False(t, models.IsMoneyType(txType), "%s audited as points but classified as money", txType)
		seen[txType] = true
	}

	for _, txType := range moneyLedgerTypes {
		assert.False(t, seen[txType], "duplicate type %s", txType)
		assert.True(t, models.IsMoneyType(txType), "%s audited as money but classified as points", txType)
		seen[txType] = true
	}
}

// Forfeiture rows document destroyed locked value and must stay out of the
// free-balance conservation sums.
func TestForfeituresExcludedFromAudit(t *testing.T) {
	for _, txType := range pointsLedgerTypes {
		assert.NotEqual(t, models.TxPointsForfeited, txType)
	}
	for _, txType := range moneyLedgerTypes {
		assert.NotEqual(t, models.TxMoneyForfeited, txType)
	}
}
